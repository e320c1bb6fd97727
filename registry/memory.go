package registry

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRegistry is a writable in-memory backend. It is used to seed tests
// and to embed a scratch registry into a process without touching disk.
// All reads return deep copies, so callers can never mutate stored state
// through a returned record.
type MemoryRegistry struct {
	uri string

	mu         sync.RWMutex
	metadata   map[ChainName]ChainMetadata
	addresses  map[ChainName]ChainAddresses
	warpRoutes map[string]WarpRouteConfig
}

var _ Registry = &MemoryRegistry{}

// NewMemoryRegistry creates an empty in-memory backend. The uri is used
// only for diagnostics and may be any non-empty label, e.g. "memory://seed".
func NewMemoryRegistry(uri string) *MemoryRegistry {
	return &MemoryRegistry{
		uri:        uri,
		metadata:   map[ChainName]ChainMetadata{},
		addresses:  map[ChainName]ChainAddresses{},
		warpRoutes: map[string]WarpRouteConfig{},
	}
}

func (r *MemoryRegistry) Kind() Kind  { return KindMemory }
func (r *MemoryRegistry) URI() string { return r.uri }

// ListRegistryContent returns a snapshot with synthesized locations, since
// an in-memory backend has no files backing its records.
func (r *MemoryRegistry) ListRegistryContent(_ context.Context) (RegistryContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	content := RegistryContent{
		Chains:      make(map[ChainName]ChainFiles),
		Deployments: DeploymentContent{WarpRoutes: make(map[string]string)},
	}
	for name := range r.metadata {
		files := content.Chains[name]
		files.Metadata = fmt.Sprintf("%s/chains/%s/metadata", r.uri, name)
		content.Chains[name] = files
	}
	for name := range r.addresses {
		files := content.Chains[name]
		files.Addresses = fmt.Sprintf("%s/chains/%s/addresses", r.uri, name)
		content.Chains[name] = files
	}
	for id := range r.warpRoutes {
		content.Deployments.WarpRoutes[id] = fmt.Sprintf("%s/deployments/warp_routes/%s", r.uri, id)
	}

	return content, nil
}

func (r *MemoryRegistry) GetMetadata(_ context.Context) (map[ChainName]ChainMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[ChainName]ChainMetadata, len(r.metadata))
	for name, record := range r.metadata {
		out[name] = record.Clone()
	}

	return out, nil
}

func (r *MemoryRegistry) GetAddresses(_ context.Context) (map[ChainName]ChainAddresses, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[ChainName]ChainAddresses, len(r.addresses))
	for name, record := range r.addresses {
		out[name] = record.Clone()
	}

	return out, nil
}

// AddChain inserts a new chain record. EVM hex addresses are standardized
// to EIP-55 on the way in.
func (r *MemoryRegistry) AddChain(_ context.Context, chain NewChainRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.exists(chain.Name) {
		return fmt.Errorf("chain %s: %w", chain.Name, ErrChainExists)
	}
	r.store(chain)

	return nil
}

// UpdateChain replaces the supplied parts of an existing chain record. A nil
// part leaves the stored part untouched.
func (r *MemoryRegistry) UpdateChain(_ context.Context, chain NewChainRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.exists(chain.Name) {
		return fmt.Errorf("chain %s: %w", chain.Name, ErrChainNotFound)
	}
	r.store(chain)

	return nil
}

func (r *MemoryRegistry) RemoveChain(_ context.Context, name ChainName) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.exists(name) {
		return fmt.Errorf("chain %s: %w", name, ErrChainNotFound)
	}
	delete(r.metadata, name)
	delete(r.addresses, name)

	return nil
}

// AddWarpRoute upserts the route artifact under its canonical route ID.
func (r *MemoryRegistry) AddWarpRoute(_ context.Context, route WarpRouteConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.warpRoutes[route.RouteID()] = route

	return nil
}

func (r *MemoryRegistry) exists(name ChainName) bool {
	_, hasMetadata := r.metadata[name]
	_, hasAddresses := r.addresses[name]

	return hasMetadata || hasAddresses
}

// store writes the supplied parts of the record. Callers must hold the
// write lock.
func (r *MemoryRegistry) store(chain NewChainRecord) {
	if chain.Metadata != nil {
		r.metadata[chain.Name] = chain.Metadata.Clone()
	}
	if chain.Addresses != nil {
		r.addresses[chain.Name] = NormalizeAddresses(chain.Addresses)
	}
}
