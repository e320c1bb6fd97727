package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChainName is the unique string identifier for a blockchain network. It is
// the key for all per-chain maps.
type ChainName string

func (n ChainName) String() string { return string(n) }

// ChainMetadata describes a chain's protocol parameters, RPC endpoints,
// display info, etc. The schema is open: values may be nested maps, which
// the merge engine folds field by field.
type ChainMetadata map[string]any

// Clone returns a deep copy of the metadata. Nested maps and slices are
// copied; scalar values are shared.
func (m ChainMetadata) Clone() ChainMetadata {
	if m == nil {
		return nil
	}
	out := make(ChainMetadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}

	return out
}

// ChainAddresses maps a deployed contract name to its address on a chain.
type ChainAddresses map[string]string

// Clone returns a copy of the address record.
func (a ChainAddresses) Clone() ChainAddresses {
	if a == nil {
		return nil
	}
	out := make(ChainAddresses, len(a))
	for k, v := range a {
		out[k] = v
	}

	return out
}

// ChainFiles holds the backend-relative locations of a chain's content.
type ChainFiles struct {
	Metadata  string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Addresses string `json:"addresses,omitempty" yaml:"addresses,omitempty"`
}

// DeploymentContent enumerates the deployment artifacts known to a backend.
type DeploymentContent struct {
	// WarpRoutes maps a canonical route ID to the route config location.
	WarpRoutes map[string]string `json:"warpRoutes" yaml:"warpRoutes"`
}

// RegistryContent is the full snapshot of chains and deployment artifacts
// known to a backend.
type RegistryContent struct {
	Chains      map[ChainName]ChainFiles `json:"chains" yaml:"chains"`
	Deployments DeploymentContent        `json:"deployments" yaml:"deployments"`
}

// Clone returns a deep copy of the content snapshot.
func (c RegistryContent) Clone() RegistryContent {
	out := RegistryContent{}
	if c.Chains != nil {
		out.Chains = make(map[ChainName]ChainFiles, len(c.Chains))
		for name, files := range c.Chains {
			out.Chains[name] = files
		}
	}
	if c.Deployments.WarpRoutes != nil {
		out.Deployments.WarpRoutes = make(map[string]string, len(c.Deployments.WarpRoutes))
		for id, loc := range c.Deployments.WarpRoutes {
			out.Deployments.WarpRoutes[id] = loc
		}
	}

	return out
}

// NewChainRecord is the argument for chain write operations. Metadata and
// Addresses are both optional; a nil part leaves the corresponding backend
// content untouched.
type NewChainRecord struct {
	Name      ChainName      `json:"name" yaml:"name"`
	Metadata  ChainMetadata  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Addresses ChainAddresses `json:"addresses,omitempty" yaml:"addresses,omitempty"`
}

// WarpRouteToken describes one token of a warp route deployment.
type WarpRouteToken struct {
	ChainName      ChainName `json:"chainName" yaml:"chainName"`
	Standard       string    `json:"standard" yaml:"standard"`
	Name           string    `json:"name" yaml:"name"`
	Symbol         string    `json:"symbol" yaml:"symbol"`
	Decimals       uint8     `json:"decimals" yaml:"decimals"`
	AddressOrDenom string    `json:"addressOrDenom,omitempty" yaml:"addressOrDenom,omitempty"`
}

// WarpRouteConfig is a warp route deployment artifact.
type WarpRouteConfig struct {
	Tokens []WarpRouteToken `json:"tokens" yaml:"tokens"`
}

// RouteID derives the canonical identifier for the route: the token symbol
// followed by the sorted list of member chains, e.g. "USDC/arbitrum-base".
func (c WarpRouteConfig) RouteID() string {
	var symbol string
	chains := make([]string, 0, len(c.Tokens))
	for _, t := range c.Tokens {
		if symbol == "" {
			symbol = t.Symbol
		}
		chains = append(chains, string(t.ChainName))
	}
	sort.Strings(chains)

	return fmt.Sprintf("%s/%s", symbol, strings.Join(chains, "-"))
}

// NormalizeAddresses standardizes EVM hex addresses to EIP-55 checksum
// format. Non-hex values (cosmos denoms, base58 addresses, ...) are passed
// through unchanged.
func NormalizeAddresses(addrs ChainAddresses) ChainAddresses {
	out := make(ChainAddresses, len(addrs))
	for name, addr := range addrs {
		if common.IsHexAddress(addr) {
			addr = common.HexToAddress(addr).Hex()
		}
		out[name] = addr
	}

	return out
}

// cloneValue deep-copies nested maps and slices so that records handed out
// by a backend or produced by the merge engine never alias stored state.
func cloneValue(v any) any {
	switch t := v.(type) {
	case ChainMetadata:
		return t.Clone()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}

		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}

		return out
	default:
		return v
	}
}
