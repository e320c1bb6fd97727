package registry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestWarpRouteConfig_RouteID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		give     WarpRouteConfig
		expected string
	}{
		{
			name: "success: chains are sorted regardless of token order",
			give: WarpRouteConfig{Tokens: []WarpRouteToken{
				{ChainName: "optimism", Symbol: "USDC"},
				{ChainName: "arbitrum", Symbol: "USDC"},
			}},
			expected: "USDC/arbitrum-optimism",
		},
		{
			name: "success: single chain route",
			give: WarpRouteConfig{Tokens: []WarpRouteToken{
				{ChainName: "base", Symbol: "ETH"},
			}},
			expected: "ETH/base",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.expected, tt.give.RouteID())
		})
	}
}

func TestNormalizeAddresses(t *testing.T) {
	t.Parallel()

	raw := "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
	normalized := NormalizeAddresses(ChainAddresses{
		"mailbox": raw,
		"denom":   "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2",
	})

	// Hex addresses are standardized to EIP-55; non-hex values pass through.
	require.Equal(t, common.HexToAddress(raw).Hex(), normalized["mailbox"])
	require.NotEqual(t, raw, normalized["mailbox"])
	require.Equal(t, "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2", normalized["denom"])
}

func TestChainMetadata_Clone(t *testing.T) {
	t.Parallel()

	original := ChainMetadata{
		"rpc":    "url1",
		"blocks": map[string]any{"confirmations": 1},
		"urls":   []any{"a", "b"},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	clone["rpc"] = "changed"
	clone["blocks"].(map[string]any)["confirmations"] = 9
	clone["urls"].([]any)[0] = "z"

	require.Equal(t, "url1", original["rpc"])
	require.Equal(t, 1, original["blocks"].(map[string]any)["confirmations"])
	require.Equal(t, "a", original["urls"].([]any)[0])

	require.Nil(t, ChainMetadata(nil).Clone())
}

func TestChainMetadata_Clone_NestedNamedType(t *testing.T) {
	t.Parallel()

	// Decoders can hand back nested maps typed ChainMetadata rather than
	// map[string]any. Clone must deep-copy those too, or records sourced
	// from such a decoder alias through the merge.
	original := ChainMetadata{
		"blocks": ChainMetadata{"confirmations": 1},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	clone["blocks"].(ChainMetadata)["confirmations"] = 99
	require.Equal(t, 1, original["blocks"].(ChainMetadata)["confirmations"])
}

func TestRegistryContent_Clone(t *testing.T) {
	t.Parallel()

	original := RegistryContent{
		Chains: map[ChainName]ChainFiles{
			"chainA": {Metadata: "a/metadata.yaml"},
		},
		Deployments: DeploymentContent{WarpRoutes: map[string]string{
			"USDC/chainA-chainB": "warp/usdc.yaml",
		}},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.Chains["chainB"] = ChainFiles{Metadata: "b/metadata.yaml"}
	clone.Deployments.WarpRoutes["ETH/chainA"] = "warp/eth.yaml"

	require.NotContains(t, original.Chains, ChainName("chainB"))
	require.NotContains(t, original.Deployments.WarpRoutes, "ETH/chainA")
}
