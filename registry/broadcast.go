package registry

import (
	"context"

	"github.com/google/uuid"
)

// WriteStatus is the terminal state of a single backend write attempt.
type WriteStatus string

const (
	// WriteStatusSkipped means the backend is not writable and the operation
	// was never attempted against it.
	WriteStatusSkipped WriteStatus = "skipped"
	// WriteStatusSucceeded means the backend applied the operation.
	WriteStatusSucceeded WriteStatus = "succeeded"
	// WriteStatusFailed means the backend rejected the operation. The error
	// is recorded on the result and logged; it never propagates to the
	// caller.
	WriteStatusFailed WriteStatus = "failed"
)

// WriteResult records the outcome of a broadcast write against one backend.
type WriteResult struct {
	URI    string
	Kind   Kind
	Status WriteStatus
	Err    error
}

// AddChain broadcasts a new chain record to every writable backend and
// returns the per-backend outcomes. Individual backend failures are
// isolated; they never fail the call.
func (m *MergedRegistry) AddChain(ctx context.Context, chain NewChainRecord) []WriteResult {
	return m.broadcast(ctx, "AddChain", func(ctx context.Context, r Registry) error {
		return r.AddChain(ctx, chain)
	})
}

// UpdateChain broadcasts an update to an existing chain record to every
// writable backend and returns the per-backend outcomes.
func (m *MergedRegistry) UpdateChain(ctx context.Context, chain NewChainRecord) []WriteResult {
	return m.broadcast(ctx, "UpdateChain", func(ctx context.Context, r Registry) error {
		return r.UpdateChain(ctx, chain)
	})
}

// RemoveChain broadcasts a chain removal to every writable backend and
// returns the per-backend outcomes.
func (m *MergedRegistry) RemoveChain(ctx context.Context, name ChainName) []WriteResult {
	return m.broadcast(ctx, "RemoveChain", func(ctx context.Context, r Registry) error {
		return r.RemoveChain(ctx, name)
	})
}

// AddWarpRoute broadcasts a warp route deployment artifact to every writable
// backend and returns the per-backend outcomes.
func (m *MergedRegistry) AddWarpRoute(ctx context.Context, route WarpRouteConfig) []WriteResult {
	return m.broadcast(ctx, "AddWarpRoute", func(ctx context.Context, r Registry) error {
		return r.AddWarpRoute(ctx, route)
	})
}

// broadcast applies op to every backend sequentially, in the configured
// construction order. Sequential iteration keeps the failure log ordered
// and avoids overlapping mutations hitting one backend from the same call.
//
// Non-writable backends are skipped with a notice. A failing backend is
// logged with its identity and the per-call trace ID, then iteration
// continues: there is no rollback of backends that already applied the
// write, no retry, and no timeout at this layer. Losing the applied writes
// would be worse than leaving backends transiently divergent; convergence
// happens through a later resync outside this layer.
func (m *MergedRegistry) broadcast(ctx context.Context, opName string, op func(context.Context, Registry) error) []WriteResult {
	traceID := uuid.New()
	results := make([]WriteResult, 0, len(m.registries))

	for _, reg := range m.registries {
		result := WriteResult{URI: reg.URI(), Kind: reg.Kind()}

		if !reg.Kind().Writable() {
			result.Status = WriteStatusSkipped
			m.lggr.Infow("Skipping non-writable registry",
				"traceID", traceID.String(), "op", opName, "kind", reg.Kind().String(), "uri", reg.URI(),
			)
			results = append(results, result)

			continue
		}

		if err := op(ctx, reg); err != nil {
			result.Status = WriteStatusFailed
			result.Err = err
			m.lggr.Errorw("Failed to apply write to registry",
				"traceID", traceID.String(), "op", opName, "kind", reg.Kind().String(), "uri", reg.URI(), "error", err,
			)
			results = append(results, result)

			continue
		}

		result.Status = WriteStatusSucceeded
		m.lggr.Infow("Applied write to registry",
			"traceID", traceID.String(), "op", opName, "kind", reg.Kind().String(), "uri", reg.URI(),
		)
		results = append(results, result)
	}

	return results
}
