package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxuan190/orca-swap-router/internal/adapters/orca"
)

func openStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openStorage(t)

	raw := orca.RawDocuments{
		orca.DocPools:      []byte(`{"A/B":{}}`),
		orca.DocRoutes:     []byte(`{}`),
		orca.DocTokens:     []byte(`{"A":{}}`),
		orca.DocProgramIDs: []byte(`{}`),
	}
	require.NoError(t, s.SaveSnapshot("mainnet", "https://example.invalid", raw))
	require.NoError(t, s.SaveSnapshot("devnet", "testdata", orca.RawDocuments{orca.DocPools: []byte(`{}`)}))

	loaded, err := s.LoadSnapshot("mainnet")
	require.NoError(t, err)
	require.Equal(t, raw, loaded)

	dev, err := s.LoadSnapshot("devnet")
	require.NoError(t, err)
	require.Len(t, dev, 1)

	meta, ok, err := s.Meta("mainnet")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, meta.Documents)
	require.Equal(t, "https://example.invalid", meta.Source)

	_, ok, err = s.Meta("testnet")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSnapshotDecodesAfterReload(t *testing.T) {
	s := openStorage(t)

	raw, err := orca.NewLoader("../orca/testdata", "mainnet").Fetch(t.Context())
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot("mainnet", "../orca/testdata", raw))

	loaded, err := s.LoadSnapshot("mainnet")
	require.NoError(t, err)

	data, err := orca.Decode("mainnet", loaded)
	require.NoError(t, err)
	require.Len(t, data.Pools, 5)
}
