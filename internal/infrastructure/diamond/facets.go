package diamond

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"rwa_dashboard/internal/domain/entity"
)

// The diamond exposes one address per chain; facets are logical groupings of
// its functions. Each facet carries a statically known ABI so callers never
// probe methods at runtime.
var facetABIJSON = map[entity.Facet]string{
	entity.FacetAuthUser: `[
		{"name":"getUserNFTs","type":"function","stateMutability":"view",
		 "inputs":[{"name":"user","type":"address"}],
		 "outputs":[{"name":"","type":"uint256[]"}]},
		{"name":"getNFTValuation","type":"function","stateMutability":"view",
		 "inputs":[{"name":"tokenId","type":"uint256"}],
		 "outputs":[{"name":"","type":"uint256"}]},
		{"name":"getNFTMetadata","type":"function","stateMutability":"view",
		 "inputs":[{"name":"tokenId","type":"uint256"}],
		 "outputs":[{"name":"","type":"string"}]}
	]`,
	entity.FacetView: `[
		{"name":"getUserLoans","type":"function","stateMutability":"view",
		 "inputs":[{"name":"user","type":"address"}],
		 "outputs":[{"name":"","type":"uint256[]"}]},
		{"name":"getLoanById","type":"function","stateMutability":"view",
		 "inputs":[{"name":"loanId","type":"uint256"}],
		 "outputs":[
			{"name":"loanAmount","type":"uint256"},
			{"name":"totalDebt","type":"uint256"},
			{"name":"interestRate","type":"uint256"},
			{"name":"durationMonths","type":"uint256"},
			{"name":"startTime","type":"uint256"},
			{"name":"paidAmount","type":"uint256"},
			{"name":"isActive","type":"bool"},
			{"name":"collateralTokenId","type":"uint256"},
			{"name":"accountTokenId","type":"uint256"}
		 ]},
		{"name":"calculateLoanInterest","type":"function","stateMutability":"view",
		 "inputs":[
			{"name":"amount","type":"uint256"},
			{"name":"durationMonths","type":"uint256"}
		 ],
		 "outputs":[
			{"name":"totalDebt","type":"uint256"},
			{"name":"bufferAmount","type":"uint256"}
		 ]}
	]`,
	entity.FacetAutomationLoan: `[
		{"name":"createLoan","type":"function","stateMutability":"nonpayable",
		 "inputs":[
			{"name":"amount","type":"uint256"},
			{"name":"durationMonths","type":"uint256"},
			{"name":"collateralTokenId","type":"uint256"},
			{"name":"accountTokenId","type":"uint256"}
		 ],
		 "outputs":[{"name":"loanId","type":"uint256"}]},
		{"name":"makeMonthlyPayment","type":"function","stateMutability":"payable",
		 "inputs":[{"name":"loanId","type":"uint256"}],
		 "outputs":[]}
	]`,
	entity.FacetCrossChain: `[
		{"name":"getSupportedChains","type":"function","stateMutability":"view",
		 "inputs":[],
		 "outputs":[{"name":"","type":"uint64[]"}]}
	]`,
	entity.FacetDiamondLoupe: `[
		{"name":"facetAddresses","type":"function","stateMutability":"view",
		 "inputs":[],
		 "outputs":[{"name":"","type":"address[]"}]}
	]`,
}

var (
	parsedFacetABIs map[entity.Facet]abi.ABI
	parseFacetsOnce sync.Once
	parseFacetsErr  error
)

// facetABI returns the parsed ABI for the facet. The full table is parsed on
// first use; a malformed built-in ABI is a programming error.
func facetABI(facet entity.Facet) (abi.ABI, error) {
	parseFacetsOnce.Do(func() {
		parsedFacetABIs = make(map[entity.Facet]abi.ABI, len(facetABIJSON))
		for name, raw := range facetABIJSON {
			parsed, err := abi.JSON(strings.NewReader(raw))
			if err != nil {
				parseFacetsErr = fmt.Errorf("failed to parse ABI for facet %s: %w", name, err)
				return
			}
			parsedFacetABIs[name] = parsed
		}
	})
	if parseFacetsErr != nil {
		return abi.ABI{}, parseFacetsErr
	}
	parsed, ok := parsedFacetABIs[facet]
	if !ok || len(parsed.Methods) == 0 {
		return abi.ABI{}, fmt.Errorf("unknown facet %q", facet)
	}
	return parsed, nil
}
