package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhallhq/tutor-agent/internal/adapters/llm"
	"github.com/studyhallhq/tutor-agent/internal/adapters/storage/memory"
	"github.com/studyhallhq/tutor-agent/internal/app/session"
	"github.com/studyhallhq/tutor-agent/internal/domain"
)

func newTestService(t *testing.T) (*session.Service, *llm.MockLLM, *memory.ConversationStore) {
	t.Helper()

	mock := llm.NewMockLLM()
	store := memory.NewConversationStore()
	svc, err := session.NewService(context.Background(), mock, store)
	require.NoError(t, err)
	return svc, mock, store
}

func TestCreateSessionExcludedFromListUntilFirstTurn(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	id, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// zero-turn sessions are hidden from the list
	assert.Empty(t, svc.ListSessions(ctx, "alice"))

	it := session.NewInteraction("alice")
	require.NoError(t, svc.SelectSession(ctx, it, id))
	_, err = svc.SendMessage(ctx, it, "hello")
	require.NoError(t, err)

	got := svc.ListSessions(ctx, "alice")
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, 1, got[0].PairCount)
}

func TestSendMessageAppendsExactlyTwoTurns(t *testing.T) {
	ctx := context.Background()
	svc, mock, _ := newTestService(t)
	mock.ChatReply = "Gravity pulls masses together."

	id, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	it := session.NewInteraction("alice")
	require.NoError(t, svc.SelectSession(ctx, it, id))

	reply, err := svc.SendMessage(ctx, it, "what is gravity?")
	require.NoError(t, err)
	assert.Equal(t, "Gravity pulls masses together.", reply)

	history, err := svc.History("alice", id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleStudent, history[0].Role)
	assert.Equal(t, domain.RoleTutor, history[1].Role)

	// the recorded student turn keeps the original text; the directive only
	// travels on the wire
	assert.Equal(t, "what is gravity?", history[0].Text())
	assert.Contains(t, mock.LastChatText, "what is gravity?")
	assert.Greater(t, len(mock.LastChatText), len("what is gravity?"))
}

func TestSendMessageFailureAppendsNothing(t *testing.T) {
	ctx := context.Background()
	svc, mock, _ := newTestService(t)

	boom := errors.New("upstream overloaded")
	mock.ChatErr = boom

	id, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	it := session.NewInteraction("alice")
	require.NoError(t, svc.SelectSession(ctx, it, id))

	_, err = svc.SendMessage(ctx, it, "hello?")
	require.ErrorIs(t, err, boom)

	history, err := svc.History("alice", id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSendMessageWithoutActiveSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	it := session.NewInteraction("alice")
	_, err := svc.SendMessage(context.Background(), it, "hello")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestSelectSessionUnknown(t *testing.T) {
	svc, _, _ := newTestService(t)

	it := session.NewInteraction("alice")
	err := svc.SelectSession(context.Background(), it, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDeleteSessionClearsActivePointer(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	id, err := svc.CreateSession(ctx, "alice")
	require.NoError(t, err)

	it := session.NewInteraction("alice")
	require.NoError(t, svc.SelectSession(ctx, it, id))
	require.NoError(t, svc.DeleteSession(ctx, it, id))

	assert.Empty(t, it.ActiveSession)
	_, err = svc.History("alice", id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStatePersistsAcrossServices(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService(t)

	id, err := svc.CreateSession(ctx, "bob")
	require.NoError(t, err)

	it := session.NewInteraction("bob")
	require.NoError(t, svc.SelectSession(ctx, it, id))
	_, err = svc.SendMessage(ctx, it, "hi")
	require.NoError(t, err)

	// a second service over the same store sees the persisted turns
	svc2, err := session.NewService(ctx, llm.NewMockLLM(), store)
	require.NoError(t, err)

	history, err := svc2.History("bob", id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
