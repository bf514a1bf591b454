package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/internal/repository"
	"github.com/d60-Lab/relation-engine/pkg/logger"
)

// FollowOutcome is the state of the ordered pair after ProposeFollow.
type FollowOutcome string

const (
	OutcomeFollowing FollowOutcome = "FOLLOWING"
	OutcomeRequested FollowOutcome = "REQUESTED"
)

// FollowWorkflow drives NONE -> FOLLOWING for public targets and
// NONE -> PENDING -> APPROVED|REJECTED for gated ones.
type FollowWorkflow struct {
	store *repository.Store
	gate  *NotificationGate
	// privacy builds a resolver over the transaction's account repository.
	privacy func(repository.AccountRepository) PrivacyPolicyResolver
}

func NewFollowWorkflow(store *repository.Store, gate *NotificationGate) *FollowWorkflow {
	return &FollowWorkflow{store: store, gate: gate, privacy: NewPrivacyResolver}
}

// ProposeFollow checks an existing edge, then an existing pending request,
// and only then the target's policy, so a policy change never rewrites a
// request already in flight.
func (w *FollowWorkflow) ProposeFollow(ctx context.Context, proposer, target string) (FollowOutcome, error) {
	ctx, span := tracer.Start(ctx, "FollowWorkflow.ProposeFollow")
	defer span.End()

	if proposer == target {
		return "", ErrFollowSelf
	}

	var outcome FollowOutcome
	err := w.store.Transaction(ctx, func(tx *repository.Store) error {
		accs, err := tx.Accounts.LockPair(ctx, proposer, target)
		if err != nil {
			return lockPairError(err, proposer, target)
		}

		following, err := tx.Follows.Exists(ctx, proposer, target)
		if err != nil {
			return err
		}
		if following {
			outcome = OutcomeFollowing
			return nil
		}

		if _, err := tx.FollowRequests.FindPending(ctx, proposer, target); err == nil {
			outcome = OutcomeRequested
			return nil
		} else if !isRepoNotFound(err) {
			return err
		}

		gated, err := w.privacy(tx.Accounts).IsGated(ctx, target)
		if err != nil {
			return err
		}

		if !gated {
			outcome = OutcomeFollowing
			created, err := tx.Follows.Create(ctx, proposer, target)
			if err != nil {
				return err
			}
			if !created {
				logger.Debug("concurrent follow resolved as existing edge",
					zap.String("follower", proposer), zap.String("followee", target))
				return nil
			}
			_, err = w.gate.NotifyTx(ctx, tx, Event{
				Recipient:  target,
				Type:       model.NotificationFollow,
				Message:    fmt.Sprintf("%s started following you", accs[proposer].Username),
				PrimaryRef: proposer,
			})
			return err
		}

		outcome = OutcomeRequested
		req, created, err := tx.FollowRequests.CreatePending(ctx, proposer, target)
		if err != nil {
			return err
		}
		if !created {
			logger.Debug("concurrent follow request resolved as existing request",
				zap.String("requester", proposer), zap.String("target", target))
			return nil
		}
		_, err = w.gate.NotifyTx(ctx, tx, Event{
			Recipient:    target,
			Type:         model.NotificationFollowRequest,
			Message:      fmt.Sprintf("%s requested to follow you", accs[proposer].Username),
			PrimaryRef:   proposer,
			SecondaryRef: req.ID,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("follow.outcome", string(outcome)))
	return outcome, nil
}

// Approve moves a pending request to APPROVED and creates the edge in the
// same transaction. Policy is not re-checked. The decided request is returned.
func (w *FollowWorkflow) Approve(ctx context.Context, requestID, actor string) (*model.FollowRequest, error) {
	ctx, span := tracer.Start(ctx, "FollowWorkflow.Approve")
	defer span.End()

	var approved *model.FollowRequest
	err := w.store.Transaction(ctx, func(tx *repository.Store) error {
		req, err := w.decidable(ctx, tx, requestID, actor)
		if err != nil {
			return err
		}
		if err := transition(ctx, tx, req.ID, model.FollowRequestApproved); err != nil {
			return err
		}
		if _, err := tx.Follows.Create(ctx, req.RequesterID, req.TargetID); err != nil {
			return err
		}
		req.Status = model.FollowRequestApproved
		approved = req
		_, err = w.gate.NotifyTx(ctx, tx, Event{
			Recipient:    req.RequesterID,
			Type:         model.NotificationFollowRequestApproved,
			Message:      "your follow request was approved",
			PrimaryRef:   req.TargetID,
			SecondaryRef: req.ID,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return approved, nil
}

// Reject moves a pending request to REJECTED. No edge is created.
func (w *FollowWorkflow) Reject(ctx context.Context, requestID, actor string) error {
	ctx, span := tracer.Start(ctx, "FollowWorkflow.Reject")
	defer span.End()

	err := w.store.Transaction(ctx, func(tx *repository.Store) error {
		req, err := w.decidable(ctx, tx, requestID, actor)
		if err != nil {
			return err
		}
		if err := transition(ctx, tx, req.ID, model.FollowRequestRejected); err != nil {
			return err
		}
		_, err = w.gate.NotifyTx(ctx, tx, Event{
			Recipient:    req.RequesterID,
			Type:         model.NotificationFollowRequestRejected,
			Message:      "your follow request was declined",
			PrimaryRef:   req.TargetID,
			SecondaryRef: req.ID,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Cancel lets the requester withdraw a pending request. The row ends as
// REJECTED since status never goes back to PENDING; nobody is notified.
func (w *FollowWorkflow) Cancel(ctx context.Context, requestID, actor string) error {
	return w.store.Transaction(ctx, func(tx *repository.Store) error {
		req, err := tx.FollowRequests.GetForUpdate(ctx, requestID)
		if err != nil {
			return mapNotFound(err, "follow request", requestID)
		}
		if req.RequesterID != actor {
			return fmt.Errorf("%w: only the requester can cancel", ErrForbidden)
		}
		if !req.IsPending() {
			return fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
		}
		return transition(ctx, tx, req.ID, model.FollowRequestRejected)
	})
}

// Unfollow removes the edge if present. Request history is untouched.
func (w *FollowWorkflow) Unfollow(ctx context.Context, follower, followee string) error {
	ctx, span := tracer.Start(ctx, "FollowWorkflow.Unfollow")
	defer span.End()
	return w.deleteEdge(ctx, span, follower, followee)
}

// RemoveFollower lets owner drop follower's edge onto it.
func (w *FollowWorkflow) RemoveFollower(ctx context.Context, owner, follower string) error {
	ctx, span := tracer.Start(ctx, "FollowWorkflow.RemoveFollower")
	defer span.End()
	return w.deleteEdge(ctx, span, follower, owner)
}

// deleteEdge fails with ErrNotFound for unknown accounts; an absent edge is a no-op.
func (w *FollowWorkflow) deleteEdge(ctx context.Context, span trace.Span, follower, followee string) error {
	var removed bool
	err := w.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Accounts.LockPair(ctx, follower, followee); err != nil {
			return lockPairError(err, follower, followee)
		}
		var err error
		removed, err = tx.Follows.Delete(ctx, follower, followee)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Bool("follow.removed", removed))
	return nil
}

// HasPendingRequest reports PENDING rows only; unknown accounts are ErrNotFound.
func (w *FollowWorkflow) HasPendingRequest(ctx context.Context, requester, target string) (bool, error) {
	ctx, span := tracer.Start(ctx, "FollowWorkflow.HasPendingRequest")
	defer span.End()

	for _, id := range []string{requester, target} {
		if _, err := w.store.Accounts.Get(ctx, id); err != nil {
			span.RecordError(err)
			return false, mapNotFound(err, "account", id)
		}
	}
	_, err := w.store.FollowRequests.FindPending(ctx, requester, target)
	if err == nil {
		return true, nil
	}
	if isRepoNotFound(err) {
		return false, nil
	}
	span.RecordError(err)
	return false, err
}

// decidable loads the request under lock and checks that actor may decide it.
// Authorization is checked before state so a non-target learns nothing about the request.
func (w *FollowWorkflow) decidable(ctx context.Context, tx *repository.Store, requestID, actor string) (*model.FollowRequest, error) {
	req, err := tx.FollowRequests.GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, mapNotFound(err, "follow request", requestID)
	}
	if req.TargetID != actor {
		return nil, fmt.Errorf("%w: only the target can decide a follow request", ErrForbidden)
	}
	if !req.IsPending() {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}
	return req, nil
}

// transition guards against a concurrent decision that slipped past the row lock.
func transition(ctx context.Context, tx *repository.Store, id string, to model.FollowRequestStatus) error {
	err := tx.FollowRequests.Transition(ctx, id, to)
	if isRepoNotFound(err) {
		return fmt.Errorf("%w: request %s is no longer pending", ErrInvalidState, id)
	}
	return err
}

func lockPairError(err error, a, b string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: account %s or %s", ErrNotFound, a, b)
	}
	return err
}
