// Package tests holds reusable contract suites for ports implementations.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000000")
	key := domain.SessionKey{ConversationID: "contract:" + suffix, UserID: "user@example.com"}
	sessionID := key.ID()

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(key)
		s.Start("new-event", map[string]any{"skip-login": true}, 3)
		s.Values["subject"] = "Standup"
		s.Values["attendees"] = []string{}
		s.Pending = &domain.PendingPrompt{
			Prompt:   "datetime",
			Options:  domain.PromptOptions{Text: "When does the event start?", Choices: []string{"a"}},
			State:    map[string]string{"expires": "2030-01-01T00:00:00Z"},
			Attempts: 2,
		}
		s.Turns = 7

		require.NoError(t, store.Save(ctx, sessionID, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, key, loaded.Key)
		assert.Equal(t, "new-event", loaded.Sequence)
		assert.Equal(t, 3, loaded.Step)
		assert.Equal(t, 7, loaded.Turns)
		assert.Equal(t, "Standup", loaded.Values["subject"])
		// JSON backed stores turn []string into []any; both must stay non-nil and empty.
		assert.NotNil(t, loaded.Values["attendees"])
		assert.Empty(t, loaded.Values["attendees"])
		assert.Equal(t, true, loaded.Options["skip-login"])
		require.NotNil(t, loaded.Pending)
		assert.Equal(t, "datetime", loaded.Pending.Prompt)
		assert.Equal(t, 2, loaded.Pending.Attempts)
		assert.Equal(t, "When does the event start?", loaded.Pending.Options.Text)
		assert.Equal(t, "2030-01-01T00:00:00Z", loaded.Pending.State["expires"])
	})

	t.Run("Load isolates callers", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Values["subject"] = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Standup", again.Values["subject"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(key)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		k1 := domain.SessionKey{ConversationID: key.ConversationID, UserID: "one"}
		k2 := domain.SessionKey{ConversationID: key.ConversationID, UserID: "two"}
		require.NoError(t, store.Save(ctx, k1.ID(), domain.NewSession(k1)))
		require.NoError(t, store.Save(ctx, k2.ID(), domain.NewSession(k2)))

		defer func() {
			_ = store.Delete(ctx, k1.ID())
			_ = store.Delete(ctx, k2.ID())
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, k1.ID())
		assert.Contains(t, sessions, k2.ID())
	})
}
