package cmd

import (
	"github.com/paydeck/paydeck/pkg/settlement"
)

// SimulatedFundingCents seeds the in-memory network's funding account so
// local runs can settle without external infrastructure.
const SimulatedFundingCents int64 = 100_000_000

// NewChainClient creates the settlement network client. An empty endpoint
// selects the in-memory simulated network.
func NewChainClient(endpoint, fundingAccount string) settlement.ChainClient {
	if endpoint == "" {
		client := settlement.NewSimulatedClient()
		client.Fund(fundingAccount, SimulatedFundingCents)

		return client
	}

	return settlement.NewRPCClient(endpoint)
}
