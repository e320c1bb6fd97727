// Package httpstore implements a read-only registry backend that fetches a
// published registry snapshot over HTTP.
//
// The remote serves a single JSON document at <base>/registry.json carrying
// a schema version plus the full content, metadata and address maps. The
// backend never caches: every read fetches a fresh snapshot, retrying
// transient failures.
package httpstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/avast/retry-go/v4"

	"github.com/chain-registry/chain-registry-framework/registry"
)

// SupportedSchemaMajor is the snapshot schema major version this client
// understands. A remote publishing a different major is rejected.
const SupportedSchemaMajor = 1

const (
	snapshotPath = "/registry.json"

	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
	defaultFetchTimeout  = 10 * time.Second
)

// ErrSchemaVersion is returned when the remote snapshot's schema version is
// missing, unparseable, or of an unsupported major version.
var ErrSchemaVersion = fmt.Errorf("unsupported registry schema version")

// Snapshot is the wire format of the published registry document.
type Snapshot struct {
	SchemaVersion string                                           `json:"schemaVersion"`
	Content       registry.RegistryContent                         `json:"content"`
	Metadata      map[registry.ChainName]registry.ChainMetadata    `json:"metadata"`
	Addresses     map[registry.ChainName]registry.ChainAddresses   `json:"addresses"`
}

// RetryConfig controls per-read fetch behavior.
type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	Timeout  time.Duration
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: defaultRetryAttempts,
		Delay:    defaultRetryDelay,
		Timeout:  defaultFetchTimeout,
	}
}

// Registry is a read-only backend over a published registry snapshot.
type Registry struct {
	baseURL string
	client  *http.Client
	retry   RetryConfig
}

var _ registry.Registry = &Registry{}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithHTTPClient overrides the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Registry) { r.client = client }
}

// WithRetryConfig overrides the fetch retry behavior.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(r *Registry) { r.retry = cfg }
}

// New creates a read-only HTTP backend for the snapshot published under
// baseURL.
func New(baseURL string, opts ...Option) *Registry {
	r := &Registry{
		baseURL: baseURL,
		client:  http.DefaultClient,
		retry:   defaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Registry) Kind() registry.Kind { return registry.KindHTTP }
func (r *Registry) URI() string         { return r.baseURL }

func (r *Registry) ListRegistryContent(ctx context.Context) (registry.RegistryContent, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return registry.RegistryContent{}, err
	}

	return snap.Content, nil
}

func (r *Registry) GetMetadata(ctx context.Context) (map[registry.ChainName]registry.ChainMetadata, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	return snap.Metadata, nil
}

func (r *Registry) GetAddresses(ctx context.Context) (map[registry.ChainName]registry.ChainAddresses, error) {
	snap, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	return snap.Addresses, nil
}

// The write surface always rejects: the broadcaster skips this backend by
// kind before calling, so these are a second line of defense.

func (r *Registry) AddChain(context.Context, registry.NewChainRecord) error {
	return fmt.Errorf("add chain on %s: %w", r.baseURL, registry.ErrReadOnlyRegistry)
}

func (r *Registry) UpdateChain(context.Context, registry.NewChainRecord) error {
	return fmt.Errorf("update chain on %s: %w", r.baseURL, registry.ErrReadOnlyRegistry)
}

func (r *Registry) RemoveChain(context.Context, registry.ChainName) error {
	return fmt.Errorf("remove chain on %s: %w", r.baseURL, registry.ErrReadOnlyRegistry)
}

func (r *Registry) AddWarpRoute(context.Context, registry.WarpRouteConfig) error {
	return fmt.Errorf("add warp route on %s: %w", r.baseURL, registry.ErrReadOnlyRegistry)
}

// fetch retrieves and validates the published snapshot. Server-side errors
// are retried; client-side errors (4xx, malformed body, schema mismatch)
// are not.
func (r *Registry) fetch(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot

	err := retry.Do(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.retry.Timeout)
		defer cancel()

		fetched, err := r.fetchOnce(attemptCtx)
		if err != nil {
			return err
		}
		snap = fetched

		return nil
	},
		retry.Context(ctx),
		retry.Attempts(r.retry.Attempts),
		retry.Delay(r.retry.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching registry snapshot from %s: %w", r.baseURL, err)
	}

	return snap, nil
}

func (r *Registry) fetchOnce(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+snapshotPath, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("remote registry returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, retry.Unrecoverable(fmt.Errorf("remote registry returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("unmarshaling registry snapshot: %w", err))
	}
	if err := checkSchemaVersion(snap.SchemaVersion); err != nil {
		return nil, retry.Unrecoverable(err)
	}

	return &snap, nil
}

func checkSchemaVersion(version string) error {
	if version == "" {
		return fmt.Errorf("%w: snapshot carries no schema version", ErrSchemaVersion)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: parsing %q: %v", ErrSchemaVersion, version, err)
	}
	if v.Major() != SupportedSchemaMajor {
		return fmt.Errorf("%w: got %s, supported major is %d", ErrSchemaVersion, version, SupportedSchemaMajor)
	}

	return nil
}
