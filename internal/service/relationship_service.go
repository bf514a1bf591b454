package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/relation-engine/internal/cache"
	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/internal/repository"
	"github.com/d60-Lab/relation-engine/pkg/logger"
)

// RelationshipService 关系链服务：社交关注与约会滑动的唯一入口
type RelationshipService interface {
	// accounts
	RegisterAccount(ctx context.Context, username string, privacy model.PrivacyMode) (*model.Account, error)
	ResolveIdentity(ctx context.Context, principal string) (string, error)
	SetPrivacy(ctx context.Context, accountID string, privacy model.PrivacyMode) error

	// social follow
	ProposeFollow(ctx context.Context, proposer, target string) (FollowOutcome, error)
	Approve(ctx context.Context, requestID, actor string) error
	Reject(ctx context.Context, requestID, actor string) error
	CancelRequest(ctx context.Context, requestID, actor string) error
	Unfollow(ctx context.Context, follower, followee string) error
	RemoveFollower(ctx context.Context, owner, follower string) error
	HasPendingRequest(ctx context.Context, requester, target string) (bool, error)
	RelationshipStatus(ctx context.Context, viewer, target string) (*RelationshipStatus, error)

	// read projections
	FollowerCount(ctx context.Context, userID string) (int64, error)
	FollowingCount(ctx context.Context, userID string) (int64, error)
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	ListIncomingRequests(ctx context.Context, userID string, page, pageSize int) ([]*model.FollowRequest, error)
	ListOutgoingRequests(ctx context.Context, userID string, page, pageSize int) ([]*model.FollowRequest, error)

	// dating
	Swipe(ctx context.Context, swiper, target string, dir model.SwipeDirection) (*model.Match, error)
	Unmatch(ctx context.Context, actor, matchID string) error
	ListMatches(ctx context.Context, userID string, page, pageSize int) ([]*model.Match, error)
	GetSwipe(ctx context.Context, swiper, target string) (*model.Swipe, error)

	// notifications
	Notifications() *NotificationGate
}

// RelationshipStatus is what a viewer sees on target's profile.
type RelationshipStatus struct {
	Following  bool `json:"following"`
	Requested  bool `json:"requested"`
	FollowedBy bool `json:"followed_by"`
	Gated      bool `json:"gated"`
}

type relationshipService struct {
	store   *repository.Store
	follows *FollowWorkflow
	matches *MatchEngine
	gate    *NotificationGate
	counts  *cache.CountCache
}

type Options struct {
	// Counts may be nil; counts are then always read from the store.
	Counts        *cache.CountCache
	NotifyOnMatch bool
}

func NewRelationshipService(store *repository.Store, opts Options) RelationshipService {
	gate := NewNotificationGate(store)
	return &relationshipService{
		store:   store,
		follows: NewFollowWorkflow(store, gate),
		matches: NewMatchEngine(store, gate, WithMatchNotifications(opts.NotifyOnMatch)),
		gate:    gate,
		counts:  opts.Counts,
	}
}

func (s *relationshipService) RegisterAccount(ctx context.Context, username string, privacy model.PrivacyMode) (*model.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidOperation)
	}
	if privacy == "" {
		privacy = model.PrivacyPublic
	}
	if !privacy.Valid() {
		return nil, fmt.Errorf("%w: unknown privacy mode %q", ErrInvalidOperation, privacy)
	}
	acc, err := s.store.Accounts.Create(ctx, username, privacy)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%w: username %s is taken", ErrAlreadyActed, username)
	}
	return acc, err
}

// ResolveIdentity maps an authenticated principal (the account id carried in
// the token subject) to an existing account.
func (s *relationshipService) ResolveIdentity(ctx context.Context, principal string) (string, error) {
	acc, err := s.store.Accounts.Get(ctx, principal)
	if err != nil {
		return "", mapNotFound(err, "account", principal)
	}
	return acc.ID, nil
}

func (s *relationshipService) SetPrivacy(ctx context.Context, accountID string, privacy model.PrivacyMode) error {
	if !privacy.Valid() {
		return fmt.Errorf("%w: unknown privacy mode %q", ErrInvalidOperation, privacy)
	}
	return mapNotFound(s.store.Accounts.SetPrivacy(ctx, accountID, privacy), "account", accountID)
}

func (s *relationshipService) ProposeFollow(ctx context.Context, proposer, target string) (FollowOutcome, error) {
	out, err := s.follows.ProposeFollow(ctx, proposer, target)
	if err == nil && out == OutcomeFollowing {
		s.invalidate(ctx, proposer, target)
	}
	return out, err
}

func (s *relationshipService) Approve(ctx context.Context, requestID, actor string) error {
	req, err := s.follows.Approve(ctx, requestID, actor)
	if err != nil {
		return err
	}
	s.invalidate(ctx, req.RequesterID, req.TargetID)
	return nil
}

func (s *relationshipService) Reject(ctx context.Context, requestID, actor string) error {
	return s.follows.Reject(ctx, requestID, actor)
}

func (s *relationshipService) CancelRequest(ctx context.Context, requestID, actor string) error {
	return s.follows.Cancel(ctx, requestID, actor)
}

func (s *relationshipService) Unfollow(ctx context.Context, follower, followee string) error {
	if err := s.follows.Unfollow(ctx, follower, followee); err != nil {
		return err
	}
	s.invalidate(ctx, follower, followee)
	return nil
}

func (s *relationshipService) RemoveFollower(ctx context.Context, owner, follower string) error {
	if err := s.follows.RemoveFollower(ctx, owner, follower); err != nil {
		return err
	}
	s.invalidate(ctx, follower, owner)
	return nil
}

func (s *relationshipService) HasPendingRequest(ctx context.Context, requester, target string) (bool, error) {
	return s.follows.HasPendingRequest(ctx, requester, target)
}

func (s *relationshipService) RelationshipStatus(ctx context.Context, viewer, target string) (*RelationshipStatus, error) {
	gated, err := NewPrivacyResolver(s.store.Accounts).IsGated(ctx, target)
	if err != nil {
		return nil, err
	}
	st := &RelationshipStatus{Gated: gated}
	if viewer == target {
		return st, nil
	}
	if st.Following, err = s.store.Follows.Exists(ctx, viewer, target); err != nil {
		return nil, err
	}
	if st.FollowedBy, err = s.store.Follows.Exists(ctx, target, viewer); err != nil {
		return nil, err
	}
	if !st.Following {
		if st.Requested, err = s.follows.HasPendingRequest(ctx, viewer, target); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *relationshipService) FollowerCount(ctx context.Context, userID string) (int64, error) {
	return s.count(ctx, cache.Followers, userID, s.store.Follows.CountFollowers)
}

func (s *relationshipService) FollowingCount(ctx context.Context, userID string) (int64, error) {
	return s.count(ctx, cache.Followings, userID, s.store.Follows.CountFollowings)
}

func (s *relationshipService) count(ctx context.Context, kind cache.CountKind, userID string, load func(context.Context, string) (int64, error)) (int64, error) {
	n, gen, ok := s.counts.Get(ctx, kind, userID)
	if ok {
		return n, nil
	}
	n, err := load(ctx, userID)
	if err != nil {
		return 0, err
	}
	if _, err := s.counts.Set(ctx, kind, userID, n, gen); err != nil {
		logger.Warn("count cache set failed", zap.String("user", userID), zap.Error(err))
	}
	return n, nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	offset, limit := paginate(page, pageSize)
	items, err := s.store.Follows.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FolloweeID
	}
	return res, nil
}

func (s *relationshipService) ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	offset, limit := paginate(page, pageSize)
	items, err := s.store.Follows.ListFollowers(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FollowerID
	}
	return res, nil
}

func (s *relationshipService) ListIncomingRequests(ctx context.Context, userID string, page, pageSize int) ([]*model.FollowRequest, error) {
	offset, limit := paginate(page, pageSize)
	return s.store.FollowRequests.ListIncomingPending(ctx, userID, offset, limit)
}

func (s *relationshipService) ListOutgoingRequests(ctx context.Context, userID string, page, pageSize int) ([]*model.FollowRequest, error) {
	offset, limit := paginate(page, pageSize)
	return s.store.FollowRequests.ListOutgoingPending(ctx, userID, offset, limit)
}

// Swipe emits no notification of its own unless the engine was built with
// match notifications enabled.
func (s *relationshipService) Swipe(ctx context.Context, swiper, target string, dir model.SwipeDirection) (*model.Match, error) {
	return s.matches.Swipe(ctx, swiper, target, dir)
}

func (s *relationshipService) Unmatch(ctx context.Context, actor, matchID string) error {
	return s.matches.Unmatch(ctx, actor, matchID)
}

func (s *relationshipService) ListMatches(ctx context.Context, userID string, page, pageSize int) ([]*model.Match, error) {
	return s.matches.ListMatches(ctx, userID, page, pageSize)
}

func (s *relationshipService) GetSwipe(ctx context.Context, swiper, target string) (*model.Swipe, error) {
	return s.matches.GetSwipe(ctx, swiper, target)
}

func (s *relationshipService) Notifications() *NotificationGate { return s.gate }

// invalidate runs after commit; a failure only leaves a count stale until its TTL.
func (s *relationshipService) invalidate(ctx context.Context, follower, followee string) {
	if err := s.counts.InvalidateEdge(ctx, follower, followee); err != nil {
		logger.Warn("count cache invalidate failed",
			zap.String("follower", follower), zap.String("followee", followee), zap.Error(err))
	}
}
