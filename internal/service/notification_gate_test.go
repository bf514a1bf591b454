package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/relation-engine/internal/model"
)

func TestNotify_DefaultsAreCreatedOnFirstUse(t *testing.T) {
	store := setupStore(t)
	gate := NewNotificationGate(store)
	ctx := context.Background()
	u := mkAccount(t, store, "u", model.PrivacyPublic)

	n, err := gate.Notify(ctx, Event{Recipient: u, Type: model.NotificationMention, Message: "hi", PrimaryRef: "p", ContextID: "post-1"})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "post-1", n.ContextID)
	assert.False(t, n.Read)

	pref, err := gate.Preferences(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPreference(u).Follow, pref.Follow)
	assert.False(t, pref.CommunityUpdate)
}

func TestNotify_PreferenceFiltering(t *testing.T) {
	store := setupStore(t)
	gate := NewNotificationGate(store)
	ctx := context.Background()
	u := mkAccount(t, store, "u", model.PrivacyPublic)

	// community_update 默认关闭
	n, err := gate.Notify(ctx, Event{Recipient: u, Type: model.NotificationCommunityUpdate, Message: "weekly"})
	require.NoError(t, err)
	assert.Nil(t, n)

	off, on := false, true
	_, err = gate.UpdatePreferences(ctx, u, model.PreferencePatch{FollowRequest: &off, CommunityUpdate: &on})
	require.NoError(t, err)

	for _, typ := range []model.NotificationType{
		model.NotificationFollowRequest,
		model.NotificationFollowRequestApproved,
		model.NotificationFollowRequestRejected,
	} {
		n, err := gate.Notify(ctx, Event{Recipient: u, Type: typ})
		require.NoError(t, err)
		assert.Nil(t, n, string(typ))
	}

	n, err = gate.Notify(ctx, Event{Recipient: u, Type: model.NotificationCommunityUpdate})
	require.NoError(t, err)
	assert.NotNil(t, n)

	n, err = gate.Notify(ctx, Event{Recipient: u, Type: model.NotificationType("story_reply")})
	require.NoError(t, err)
	assert.NotNil(t, n, "types without a flag are delivered")

	assert.Equal(t, int64(2), countRows(t, store, &model.Notification{}, "recipient_id = ?", u))
}

func TestUpdatePreferences_PartialPatch(t *testing.T) {
	store := setupStore(t)
	gate := NewNotificationGate(store)
	ctx := context.Background()
	u := mkAccount(t, store, "u", model.PrivacyPublic)

	off := false
	pref, err := gate.UpdatePreferences(ctx, u, model.PreferencePatch{Comment: &off})
	require.NoError(t, err)
	assert.False(t, pref.Comment)
	assert.True(t, pref.Follow)
	assert.True(t, pref.DirectMessage)
}

func TestNotificationInbox(t *testing.T) {
	store := setupStore(t)
	gate := NewNotificationGate(store)
	ctx := context.Background()
	u := mkAccount(t, store, "u", model.PrivacyPublic)
	other := mkAccount(t, store, "other", model.PrivacyPublic)

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := gate.Notify(ctx, Event{Recipient: u, Type: model.NotificationComment, Message: "c"})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	cnt, err := gate.UnreadCount(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cnt)

	err = gate.MarkRead(ctx, other, ids[0])
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), ids[0])
	assert.ErrorIs(t, gate.MarkRead(ctx, u, "missing"), ErrNotFound)
	require.NoError(t, gate.MarkRead(ctx, u, ids[0]))
	require.NoError(t, gate.MarkRead(ctx, u, ids[0]))

	unread, err := gate.List(ctx, u, true, 1, 10)
	require.NoError(t, err)
	assert.Len(t, unread, 2)
	all, err := gate.List(ctx, u, false, 1, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := gate.MarkAllRead(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	cnt, err = gate.UnreadCount(ctx, u)
	require.NoError(t, err)
	assert.Zero(t, cnt)
}
