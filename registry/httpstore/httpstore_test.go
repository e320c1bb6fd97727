package httpstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chain-registry/chain-registry-framework/registry"
)

func testSnapshot() Snapshot {
	return Snapshot{
		SchemaVersion: "1.2.0",
		Content: registry.RegistryContent{
			Chains: map[registry.ChainName]registry.ChainFiles{
				"chainA": {Metadata: "chains/chainA/metadata.yaml"},
			},
			Deployments: registry.DeploymentContent{WarpRoutes: map[string]string{}},
		},
		Metadata: map[registry.ChainName]registry.ChainMetadata{
			"chainA": {"chainId": float64(5), "rpc": "url1"},
		},
		Addresses: map[registry.ChainName]registry.ChainAddresses{
			"chainA": {"mailbox": "0x1"},
		},
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv
}

func serveSnapshot(t *testing.T, snap Snapshot) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/registry.json", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(snap))
	}
}

func fastRetries() Option {
	return WithRetryConfig(RetryConfig{Attempts: 3, Delay: time.Millisecond, Timeout: time.Second})
}

func TestRegistry_Reads(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, serveSnapshot(t, testSnapshot()))
	r := New(srv.URL, fastRetries())

	require.Equal(t, registry.KindHTTP, r.Kind())
	require.Equal(t, srv.URL, r.URI())

	metadata, err := r.GetMetadata(context.Background())
	require.NoError(t, err)
	require.Equal(t, registry.ChainMetadata{"chainId": float64(5), "rpc": "url1"}, metadata["chainA"])

	addresses, err := r.GetAddresses(context.Background())
	require.NoError(t, err)
	require.Equal(t, registry.ChainAddresses{"mailbox": "0x1"}, addresses["chainA"])

	content, err := r.ListRegistryContent(context.Background())
	require.NoError(t, err)
	require.Equal(t, "chains/chainA/metadata.yaml", content.Chains["chainA"].Metadata)
}

func TestRegistry_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	snap := testSnapshot()
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(snap))
	})

	r := New(srv.URL, fastRetries())

	metadata, err := r.GetMetadata(context.Background())
	require.NoError(t, err)
	require.Contains(t, metadata, registry.ChainName("chainA"))
	require.Equal(t, int32(3), calls.Load())
}

func TestRegistry_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	r := New(srv.URL, fastRetries())

	_, err := r.GetMetadata(context.Background())
	require.ErrorContains(t, err, "status 404")
	require.Equal(t, int32(1), calls.Load())
}

func TestRegistry_SchemaVersionCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		giveVersion string
	}{
		{name: "error: unsupported major version", giveVersion: "2.0.0"},
		{name: "error: missing version", giveVersion: ""},
		{name: "error: unparseable version", giveVersion: "not-semver"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			snap := testSnapshot()
			snap.SchemaVersion = tt.giveVersion
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				require.NoError(t, json.NewEncoder(w).Encode(snap))
			})

			r := New(srv.URL, fastRetries())

			_, err := r.GetMetadata(context.Background())
			require.ErrorIs(t, err, ErrSchemaVersion)
			// Schema mismatches are permanent, not transient.
			require.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestRegistry_WritesRejected(t *testing.T) {
	t.Parallel()

	r := New("https://registry.example")

	require.ErrorIs(t, r.AddChain(context.Background(), registry.NewChainRecord{Name: "chainA"}), registry.ErrReadOnlyRegistry)
	require.ErrorIs(t, r.UpdateChain(context.Background(), registry.NewChainRecord{Name: "chainA"}), registry.ErrReadOnlyRegistry)
	require.ErrorIs(t, r.RemoveChain(context.Background(), "chainA"), registry.ErrReadOnlyRegistry)
	require.ErrorIs(t, r.AddWarpRoute(context.Background(), registry.WarpRouteConfig{}), registry.ErrReadOnlyRegistry)
}
