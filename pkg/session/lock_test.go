package session

import (
	"context"
	"testing"

	"github.com/aretw0/pathquiz/pkg/adapters/memory"
	"github.com/aretw0/pathquiz/pkg/adapters/definition"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	def, err := definition.Default()
	require.NoError(t, err)

	mgr := NewManager(def, memory.NewStore())
	defer mgr.Close()
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		d, err := mgr.Create(ctx)
		require.NoError(t, err)
		_, _ = mgr.Directive(ctx, d.SessionID)
		require.NoError(t, mgr.Delete(ctx, d.SessionID))
	}

	require.Empty(t, mgr.locks, "lock entries must be released once unused")
	require.Empty(t, mgr.engines)
}
