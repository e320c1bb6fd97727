// Package registry defines the uniform capability contract for chain
// configuration stores (backends) and provides MergedRegistry, an aggregator
// that presents several independent backends as a single logical registry.
//
// Reads are merged across all backends with deterministic later-wins
// precedence; writes are broadcast to every writable backend with
// per-backend failure isolation.
package registry

import (
	"context"
	"errors"
)

var (
	// ErrNoRegistries is returned when an aggregator is constructed with an
	// empty backend list.
	ErrNoRegistries = errors.New("no registries provided, need at least one")

	// ErrChainNotFound is returned by a backend when no chain record exists
	// for the provided name.
	ErrChainNotFound = errors.New("no chain record can be found for the provided name")

	// ErrChainExists is returned by a backend when a chain record with the
	// supplied name already exists.
	ErrChainExists = errors.New("a chain record with the supplied name already exists")

	// ErrReadOnlyRegistry is returned by a backend that does not accept
	// writes. The broadcaster skips such backends by kind before calling,
	// so callers normally never see this error.
	ErrReadOnlyRegistry = errors.New("registry is read-only")
)

// Kind identifies a backend registry family.
type Kind string

const (
	KindMemory     Kind = "memory"
	KindFileSystem Kind = "filesystem"
	KindHTTP       Kind = "http"
)

// writableKinds is the explicit capability table for write support. A kind
// absent from this table is treated as non-writable, so adding a new backend
// family cannot silently bypass the broadcaster's skip logic.
var writableKinds = map[Kind]bool{
	KindMemory:     true,
	KindFileSystem: true,
	KindHTTP:       false,
}

// Writable reports whether registries of this kind accept writes.
func (k Kind) Writable() bool { return writableKinds[k] }

func (k Kind) String() string { return string(k) }

// Registry is the uniform capability contract exposed by every backend
// store. Implementations must be safe for concurrent use: the aggregator
// invokes reads from multiple goroutines.
type Registry interface {
	// Kind returns the backend family tag, used by the write broadcaster to
	// detect non-writable backends.
	Kind() Kind

	// URI returns a location identifier for the backend, used only for
	// logging and diagnostics.
	URI() string

	// ListRegistryContent returns a full snapshot of the chains and
	// deployment artifacts known to this backend.
	ListRegistryContent(ctx context.Context) (RegistryContent, error)

	// GetMetadata returns the metadata record for every chain known to this
	// backend.
	GetMetadata(ctx context.Context) (map[ChainName]ChainMetadata, error)

	// GetAddresses returns the deployed contract addresses for every chain
	// known to this backend.
	GetAddresses(ctx context.Context) (map[ChainName]ChainAddresses, error)

	// AddChain inserts a new chain record. It returns ErrChainExists if the
	// chain is already present.
	AddChain(ctx context.Context, chain NewChainRecord) error

	// UpdateChain replaces the stored parts of an existing chain record with
	// the parts supplied. It returns ErrChainNotFound if the chain is absent.
	UpdateChain(ctx context.Context, chain NewChainRecord) error

	// RemoveChain deletes a chain record. It returns ErrChainNotFound if the
	// chain is absent.
	RemoveChain(ctx context.Context, name ChainName) error

	// AddWarpRoute upserts a warp route deployment artifact, keyed by its
	// canonical route ID.
	AddWarpRoute(ctx context.Context, route WarpRouteConfig) error
}
