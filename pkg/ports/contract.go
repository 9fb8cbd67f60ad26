package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID, "learning-path", 3)
		session.StepIndex = 1
		session.Recorded = []int{2, 3}
		session.Answered[0] = true

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.ID, loaded.ID)
		assert.Equal(t, "learning-path", loaded.DefinitionID)
		assert.Equal(t, 1, loaded.StepIndex)
		assert.Equal(t, []int{2, 3}, loaded.Recorded)
		assert.Equal(t, []bool{true, false, false}, loaded.Answered)
		assert.Equal(t, []int{2}, loaded.Answers())
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Recorded[0] = 0

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, again.Recorded[0], "mutating a loaded session must not affect the store")
	})

	t.Run("Completed Result Survives", func(t *testing.T) {
		id := sessionID + "-done"
		session := domain.NewSession(id, "learning-path", 3)
		session.Recorded = []int{0, 3, 0}
		session.Completed = true
		idx := 2
		session.ResultIndex = &idx
		require.NoError(t, store.Save(ctx, id, session))
		defer func() { _ = store.Delete(ctx, id) }()

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.True(t, loaded.Completed)
		require.NotNil(t, loaded.ResultIndex)
		assert.Equal(t, 2, *loaded.ResultIndex)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID, "learning-path", 3))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, "learning-path", 3))
		_ = store.Save(ctx, id2, domain.NewSession(id2, "learning-path", 3))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
