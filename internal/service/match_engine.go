package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/internal/repository"
	"github.com/d60-Lab/relation-engine/pkg/logger"
)

// MatchEngine records swipes and creates a Match on the second of two mutual LIKEs.
type MatchEngine struct {
	store *repository.Store
	gate  *NotificationGate
	// notifyOnMatch is off by default: matches are surfaced by querying, not pushed.
	notifyOnMatch bool
	now           func() time.Time
}

type MatchEngineOption func(*MatchEngine)

// WithMatchNotifications makes a new match notify both participants.
func WithMatchNotifications(enabled bool) MatchEngineOption {
	return func(e *MatchEngine) { e.notifyOnMatch = enabled }
}

func NewMatchEngine(store *repository.Store, gate *NotificationGate, opts ...MatchEngineOption) *MatchEngine {
	e := &MatchEngine{store: store, gate: gate, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Swipe persists swiper's decision on target. A re-swipe of the same ordered
// pair fails with ErrAlreadyActed whatever the direction. The returned match
// is nil unless this swipe completed a mutual LIKE.
func (e *MatchEngine) Swipe(ctx context.Context, swiper, target string, dir model.SwipeDirection) (*model.Match, error) {
	ctx, span := tracer.Start(ctx, "MatchEngine.Swipe")
	defer span.End()
	span.SetAttributes(attribute.String("swipe.direction", string(dir)))

	if swiper == target {
		return nil, ErrSwipeSelf
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: unknown swipe direction %q", ErrInvalidOperation, dir)
	}

	var match *model.Match
	err := e.store.Transaction(ctx, func(tx *repository.Store) error {
		// The pair lock serializes a racing reciprocal LIKE so one of the two transactions sees the other.
		if _, err := tx.Accounts.LockPair(ctx, swiper, target); err != nil {
			return lockPairError(err, swiper, target)
		}

		if _, err := tx.Swipes.Get(ctx, swiper, target); err == nil {
			return alreadySwiped(swiper, target)
		} else if !isRepoNotFound(err) {
			return err
		}

		now := e.now()
		if _, err := tx.Swipes.Create(ctx, swiper, target, dir, now); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return alreadySwiped(swiper, target)
			}
			return err
		}
		if dir != model.SwipeLike {
			return nil
		}

		reciprocal, err := tx.Swipes.Get(ctx, target, swiper)
		if isRepoNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if reciprocal.Direction != model.SwipeLike {
			return nil
		}

		m, created, err := tx.Matches.Create(ctx, swiper, target, now)
		if err != nil {
			return err
		}
		match = m
		if !created {
			logger.Debug("match already existed for pair",
				zap.String("user1", m.User1ID), zap.String("user2", m.User2ID))
			return nil
		}
		if e.notifyOnMatch {
			return e.notifyMatch(ctx, tx, m)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("swipe.matched", match != nil))
	return match, nil
}

func (e *MatchEngine) notifyMatch(ctx context.Context, tx *repository.Store, m *model.Match) error {
	for _, uid := range []string{m.User1ID, m.User2ID} {
		if _, err := e.gate.NotifyTx(ctx, tx, Event{
			Recipient:    uid,
			Type:         model.NotificationMatch,
			Message:      "you have a new match",
			PrimaryRef:   m.Other(uid),
			SecondaryRef: m.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Unmatch soft-deactivates an active match. Only a participant may do it.
func (e *MatchEngine) Unmatch(ctx context.Context, actor, matchID string) error {
	return e.store.Transaction(ctx, func(tx *repository.Store) error {
		m, err := tx.Matches.GetForUpdate(ctx, matchID)
		if err != nil {
			return mapNotFound(err, "match", matchID)
		}
		if !m.Involves(actor) {
			return fmt.Errorf("%w: not a participant of match %s", ErrForbidden, matchID)
		}
		if !m.Active {
			return fmt.Errorf("%w: match %s is inactive", ErrInvalidState, matchID)
		}
		if err := tx.Matches.Deactivate(ctx, matchID, actor, e.now()); err != nil {
			if isRepoNotFound(err) {
				return fmt.Errorf("%w: match %s is inactive", ErrInvalidState, matchID)
			}
			return err
		}
		return nil
	})
}

func (e *MatchEngine) ListMatches(ctx context.Context, userID string, page, pageSize int) ([]*model.Match, error) {
	offset, limit := paginate(page, pageSize)
	return e.store.Matches.ListActive(ctx, userID, offset, limit)
}

// GetSwipe returns swiper's decision on target, or ErrNotFound.
func (e *MatchEngine) GetSwipe(ctx context.Context, swiper, target string) (*model.Swipe, error) {
	s, err := e.store.Swipes.Get(ctx, swiper, target)
	if err != nil {
		return nil, mapNotFound(err, "swipe", swiper+"->"+target)
	}
	return s, nil
}

func alreadySwiped(swiper, target string) error {
	return fmt.Errorf("%w: %s already swiped on %s", ErrAlreadyActed, swiper, target)
}
