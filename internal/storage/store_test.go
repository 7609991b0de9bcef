package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func drivers(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenBadger("", zap.NewNop())
	require.NoError(t, err)
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	out := map[string]Store{
		"memory": NewMemory(),
		"badger": b,
		"sqlite": s,
	}
	t.Cleanup(func() {
		for _, st := range out {
			_ = st.Close()
		}
	})
	return out
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, st := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := st.Get(ctx, "kdo_v10_pilots")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, st.Set(ctx, "kdo_v10_pilots", []byte(`[]`)))
			v, found, err := st.Get(ctx, "kdo_v10_pilots")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `[]`, string(v))

			require.NoError(t, st.Set(ctx, "kdo_v10_pilots", []byte(`[{"id":"x"}]`)))
			v, _, err = st.Get(ctx, "kdo_v10_pilots")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"x"}]`, string(v))

			require.NoError(t, st.Delete(ctx, "kdo_v10_pilots"))
			_, found, err = st.Get(ctx, "kdo_v10_pilots")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'z'
	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}
