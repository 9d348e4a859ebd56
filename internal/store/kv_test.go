package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	db, err := NewSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	sqlite, err := NewSQLKV(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]KV{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestKV_Contract(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := kv.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set(ctx, "students_v2", []byte(`[{"id":"1"}]`)))
			require.NoError(t, kv.Set(ctx, "attendance_2026-10-18", []byte(`[]`)))
			require.NoError(t, kv.Set(ctx, "attendance_2026-10-17", []byte(`[1]`)))
			require.NoError(t, kv.Set(ctx, "attendanceX2026", []byte(`x`)))

			v, err := kv.Get(ctx, "students_v2")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"1"}]`, string(v))

			require.NoError(t, kv.Set(ctx, "students_v2", []byte(`[]`)))
			v, err = kv.Get(ctx, "students_v2")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(v))

			keys, err := kv.Keys(ctx, "attendance_")
			require.NoError(t, err)
			assert.Equal(t, []string{"attendance_2026-10-17", "attendance_2026-10-18"}, keys)

			require.NoError(t, kv.Delete(ctx, "attendance_2026-10-17"))
			_, err = kv.Get(ctx, "attendance_2026-10-17")
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, kv.Delete(ctx, "never-set"))

			assert.True(t, kv.Healthy(ctx))
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "etcd"})
	assert.Error(t, err)
}

func TestOpen_DefaultsToMemory(t *testing.T) {
	kv, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)
}
