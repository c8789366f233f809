package port

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"rwa_dashboard/internal/domain/entity"
)

// WalletListener receives a state snapshot on every session transition.
// Fan-out is synchronous; listeners must not block.
type WalletListener interface {
	OnStateChange(state entity.WalletState)
}

// WalletListenerFunc adapts a plain function to WalletListener.
type WalletListenerFunc func(state entity.WalletState)

func (f WalletListenerFunc) OnStateChange(state entity.WalletState) { f(state) }

// WalletSession owns the single wallet connection of the process. One
// instance per session, constructed and injected by the composition root.
type WalletSession interface {
	// Connect transitions Disconnected -> Connected. Fails with
	// entity.ErrWalletUnavailable or entity.ErrNoAccounts.
	Connect(ctx context.Context) (entity.WalletState, error)

	// Disconnect clears the session. A no-op when already disconnected.
	Disconnect()

	// SwitchNetwork asks the wallet to change chains, registering the
	// chain's metadata with it first when the wallet does not know it.
	SwitchNetwork(ctx context.Context, chainID uint64) error

	// State returns the current snapshot.
	State() entity.WalletState

	// Subscribe registers a listener and returns its disposer.
	Subscribe(l WalletListener) (dispose func())

	// Backend exposes the chain connection of the connected session for
	// facet calls; nil while disconnected.
	Backend() Backend

	// Signer returns transact opts bound to the active chain, nil for
	// read-only sessions.
	Signer() *bind.TransactOpts
}

// ProfileStore persists the connected wallet address on the user's profile
// row. Callers treat failures as log-and-continue.
type ProfileStore interface {
	SaveWalletAddress(ctx context.Context, userID, address string) error
}
