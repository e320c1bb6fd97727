package registry

import (
	"fmt"
	"sort"

	"dario.cat/mergo"
)

// The merge engine folds an ordered list of per-backend read results into a
// single logical view. Precedence is last-write-wins at field level: for
// each chain, fields from later sources overwrite same-named fields from
// earlier sources, nested maps are merged recursively, and scalars and
// arrays are replaced wholesale. The fold is additive: a source can add or
// override fields but never remove a chain or field another source
// contributes. Inputs are never mutated.

// foldMetadata merges the ordered metadata results into one map and returns
// the chain names in first-seen fold order. Chains contributed by the same
// source are ordered lexicographically, since a single backend result
// carries no internal order of its own.
func foldMetadata(sources []map[ChainName]ChainMetadata) (map[ChainName]ChainMetadata, []ChainName, error) {
	merged := make(map[ChainName]ChainMetadata)
	order := make([]ChainName, 0)

	for _, source := range sources {
		added := make([]ChainName, 0, len(source))
		for name, record := range source {
			existing, ok := merged[name]
			if !ok {
				merged[name] = record.Clone()
				added = append(added, name)

				continue
			}
			// Clone the source record so the merged map never aliases
			// nested maps owned by a backend result.
			if err := mergo.Merge(&existing, record.Clone(), mergo.WithOverride); err != nil {
				return nil, nil, fmt.Errorf("merging metadata for chain %s: %w", name, err)
			}
			merged[name] = existing
		}
		sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
		order = append(order, added...)
	}

	return merged, order, nil
}

// foldAddresses merges the ordered address results into one map. Address
// records are flat, so the merge is a per-contract key overwrite.
func foldAddresses(sources []map[ChainName]ChainAddresses) map[ChainName]ChainAddresses {
	merged := make(map[ChainName]ChainAddresses)
	for _, source := range sources {
		for name, record := range source {
			existing, ok := merged[name]
			if !ok {
				existing = make(ChainAddresses, len(record))
				merged[name] = existing
			}
			for contract, addr := range record {
				existing[contract] = addr
			}
		}
	}

	return merged
}

// foldContent merges the ordered content snapshots into one. Chain file
// locations merge field-wise (a later source without an addresses file
// preserves the earlier location); warp route entries are keyed overwrites.
func foldContent(sources []RegistryContent) RegistryContent {
	merged := RegistryContent{
		Chains:      map[ChainName]ChainFiles{},
		Deployments: DeploymentContent{WarpRoutes: map[string]string{}},
	}

	for _, source := range sources {
		for name, files := range source.Chains {
			existing := merged.Chains[name]
			if files.Metadata != "" {
				existing.Metadata = files.Metadata
			}
			if files.Addresses != "" {
				existing.Addresses = files.Addresses
			}
			merged.Chains[name] = existing
		}
		for id, loc := range source.Deployments.WarpRoutes {
			merged.Deployments.WarpRoutes[id] = loc
		}
	}

	return merged
}
