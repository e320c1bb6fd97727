package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/chain-registry/chain-registry-framework/pkg/logger"
)

// Overrides is caller-supplied partial data that takes precedence over all
// backend data for matching chains and fields. An unset map behaves as an
// empty one and has no effect on merged reads.
type Overrides struct {
	Metadata  map[ChainName]ChainMetadata
	Addresses map[ChainName]ChainAddresses
}

// Clone returns a deep copy of the override layer.
func (o Overrides) Clone() Overrides {
	out := Overrides{}
	if o.Metadata != nil {
		out.Metadata = make(map[ChainName]ChainMetadata, len(o.Metadata))
		for name, record := range o.Metadata {
			out.Metadata[name] = record.Clone()
		}
	}
	if o.Addresses != nil {
		out.Addresses = make(map[ChainName]ChainAddresses, len(o.Addresses))
		for name, record := range o.Addresses {
			out.Addresses[name] = record.Clone()
		}
	}

	return out
}

// MergedRegistry presents several independent backend registries as a
// single logical registry. Reads fan out to every backend concurrently and
// fold the results with later-wins precedence, the override layer winning
// over everything. Writes are broadcast sequentially to every writable
// backend with per-backend failure isolation.
//
// The backend list is fixed for the lifetime of the aggregator. Overrides
// are a swappable configuration cell: SetOverrides replaces the whole value
// atomically, so concurrent readers see either the old or the new overrides
// in full, never a mix.
type MergedRegistry struct {
	lggr       logger.Logger
	registries []Registry

	mu        sync.RWMutex // guards overrides
	overrides Overrides
}

// Option configures a MergedRegistry at construction.
type Option func(*MergedRegistry)

// WithOverrides sets the initial override layer.
func WithOverrides(o Overrides) Option {
	return func(m *MergedRegistry) { m.overrides = o }
}

// NewMergedRegistry creates an aggregator over the given backends. The
// backend order is significant: later backends override earlier ones on
// reads, and writes are attempted in this exact order. Supplying zero
// backends is a configuration error.
func NewMergedRegistry(lggr logger.Logger, registries []Registry, opts ...Option) (*MergedRegistry, error) {
	if len(registries) == 0 {
		return nil, ErrNoRegistries
	}

	m := &MergedRegistry{
		lggr:       lggr,
		registries: slices.Clone(registries),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Overrides returns a deep copy of the current override layer. Mutating the
// returned maps has no effect on the aggregator; use SetOverrides to replace
// the layer.
func (m *MergedRegistry) Overrides() Overrides {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.overrides.Clone()
}

// SetOverrides replaces the override layer wholesale. There is no partial
// update: the previous overrides are discarded.
func (m *MergedRegistry) SetOverrides(o Overrides) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.overrides = o
}

// GetMetadata returns the merged metadata record for every chain known to
// any backend or the override layer.
func (m *MergedRegistry) GetMetadata(ctx context.Context) (map[ChainName]ChainMetadata, error) {
	merged, _, err := m.mergedMetadata(ctx)

	return merged, err
}

// GetAddresses returns the merged contract addresses for every chain known
// to any backend or the override layer.
func (m *MergedRegistry) GetAddresses(ctx context.Context) (map[ChainName]ChainAddresses, error) {
	results, err := fanOut(ctx, m.registries, func(ctx context.Context, r Registry) (map[ChainName]ChainAddresses, error) {
		return r.GetAddresses(ctx)
	})
	if err != nil {
		return nil, err
	}

	// The override layer merges last, as a highest-priority virtual backend.
	results = append(results, m.Overrides().Addresses)

	return foldAddresses(results), nil
}

// GetChains returns the names of all known chains, ordered by first
// appearance in the merge fold.
func (m *MergedRegistry) GetChains(ctx context.Context) ([]ChainName, error) {
	_, order, err := m.mergedMetadata(ctx)

	return order, err
}

// ListRegistryContent returns the merged snapshot of chains and deployment
// artifacts across all backends.
func (m *MergedRegistry) ListRegistryContent(ctx context.Context) (RegistryContent, error) {
	results, err := fanOut(ctx, m.registries, func(ctx context.Context, r Registry) (RegistryContent, error) {
		return r.ListRegistryContent(ctx)
	})
	if err != nil {
		return RegistryContent{}, err
	}

	return foldContent(results), nil
}

// GetChainMetadata returns the merged metadata record for a single chain.
// An absent chain is reported via ok=false, not an error.
func (m *MergedRegistry) GetChainMetadata(ctx context.Context, name ChainName) (ChainMetadata, bool, error) {
	merged, err := m.GetMetadata(ctx)
	if err != nil {
		return nil, false, err
	}
	record, ok := merged[name]

	return record, ok, nil
}

// GetChainAddresses returns the merged contract addresses for a single
// chain. An absent chain is reported via ok=false, not an error.
func (m *MergedRegistry) GetChainAddresses(ctx context.Context, name ChainName) (ChainAddresses, bool, error) {
	merged, err := m.GetAddresses(ctx)
	if err != nil {
		return nil, false, err
	}
	record, ok := merged[name]

	return record, ok, nil
}

func (m *MergedRegistry) mergedMetadata(ctx context.Context) (map[ChainName]ChainMetadata, []ChainName, error) {
	results, err := fanOut(ctx, m.registries, func(ctx context.Context, r Registry) (map[ChainName]ChainMetadata, error) {
		return r.GetMetadata(ctx)
	})
	if err != nil {
		return nil, nil, err
	}

	results = append(results, m.Overrides().Metadata)

	return foldMetadata(results)
}

// fanOut invokes fn against every backend concurrently and collects the
// results in configured backend order. It waits for every call to settle
// before reporting: there is no early return on first failure, but any
// single backend error fails the whole read.
func fanOut[R any](ctx context.Context, registries []Registry, fn func(context.Context, Registry) (R, error)) ([]R, error) {
	var (
		wg      sync.WaitGroup
		results = make([]R, len(registries))
		errs    = make([]error, len(registries))
	)

	for i, reg := range registries {
		wg.Add(1)

		go func(i int, reg Registry) {
			defer wg.Done()
			results[i], errs[i] = fn(ctx, reg)
		}(i, reg)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("registry %s (%s): %w", registries[i].URI(), registries[i].Kind(), err)
		}
	}

	return results, nil
}
