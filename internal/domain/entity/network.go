package entity

// Facet identifies a logical contract interface exposed by the diamond.
// The set is closed: callers name a facet, never an address.
type Facet string

const (
	FacetAuthUser       Facet = "AuthUser"
	FacetView           Facet = "ViewFacet"
	FacetAutomationLoan Facet = "AutomationLoan"
	FacetCrossChain     Facet = "CrossChainFacet"
	FacetDiamondLoupe   Facet = "DiamondLoupeFacet"
)

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NetworkConfig holds the configuration for a supported blockchain network.
// Instances are immutable once the registry is built; lookups hand out copies.
type NetworkConfig struct {
	ChainID          uint64 `json:"chainId" yaml:"chainId"`
	Name             string `json:"name" yaml:"name"`
	Identifier       string `json:"identifier" yaml:"identifier"` // short unique id, e.g. "ethereum"
	NativeSymbol     string `json:"nativeSymbol" yaml:"nativeSymbol"`
	Decimals         int32  `json:"decimals" yaml:"decimals"`
	RPCURL           string `json:"rpcUrl" yaml:"rpcUrl"`
	BlockExplorerURL string `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	IsTestnet        bool   `json:"isTestnet" yaml:"isTestnet"`

	// DiamondAddress is the single on-chain entry point for every facet on
	// this network. Empty means no contracts are deployed here.
	DiamondAddress string `json:"diamondAddress,omitempty" yaml:"diamondAddress,omitempty"`
}

// HasContracts reports whether a diamond deployment is registered for this network.
func (n NetworkConfig) HasContracts() bool {
	return n.DiamondAddress != "" && n.DiamondAddress != ZeroAddress
}
