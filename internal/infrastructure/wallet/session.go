package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/domain/entity"
	"rwa_dashboard/internal/pkg/metrics"
	"rwa_dashboard/internal/pkg/utils"
)

const persistTimeout = 5 * time.Second

// DialFunc opens a chain backend for an RPC URL. Overridable in tests.
type DialFunc func(rpcURL string) (port.Backend, error)

func defaultDial(rpcURL string) (port.Backend, error) {
	return ethclient.Dial(rpcURL)
}

// SessionManager implements port.WalletSession: a two-state machine
// (Disconnected, Connected) owning the single wallet connection of the
// process. One instance per session; main constructs and injects it.
type SessionManager struct {
	bridge   Bridge
	registry port.NetworkRegistry
	profiles port.ProfileStore
	logger   port.Logger
	dial     DialFunc

	userID      string
	operatorKey *ecdsa.PrivateKey

	mu           sync.Mutex
	state        entity.WalletState
	backend      port.Backend
	signer       *bind.TransactOpts
	listeners    map[int]port.WalletListener
	nextListener int
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithDial overrides how chain backends are opened.
func WithDial(d DialFunc) Option {
	return func(m *SessionManager) { m.dial = d }
}

// WithUserID sets the profile row the connected address is persisted to.
func WithUserID(id string) Option {
	return func(m *SessionManager) { m.userID = id }
}

// WithOperatorKey installs a hex-encoded private key used to build transact
// opts. Sessions without a key are read-only.
func WithOperatorKey(hexKey string) Option {
	return func(m *SessionManager) {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			m.logger.Error("Invalid operator key, session will be read-only", "error", err)
			return
		}
		m.operatorKey = key
	}
}

// NewSessionManager creates a disconnected session manager.
func NewSessionManager(bridge Bridge, registry port.NetworkRegistry, profiles port.ProfileStore, log port.Logger, opts ...Option) *SessionManager {
	m := &SessionManager{
		bridge:    bridge,
		registry:  registry,
		profiles:  profiles,
		logger:    log,
		dial:      defaultDial,
		listeners: make(map[int]port.WalletListener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect implements port.WalletSession.
func (m *SessionManager) Connect(ctx context.Context) (entity.WalletState, error) {
	if m.bridge == nil || !m.bridge.Available() {
		return entity.WalletState{}, entity.ErrWalletUnavailable
	}

	accounts, err := m.bridge.RequestAccounts(ctx)
	if err != nil {
		return entity.WalletState{}, fmt.Errorf("wallet account request failed: %w", err)
	}
	if len(accounts) == 0 {
		return entity.WalletState{}, entity.ErrNoAccounts
	}
	address := accounts[0]

	chainID, err := m.bridge.ChainID(ctx)
	if err != nil {
		return entity.WalletState{}, fmt.Errorf("failed to read wallet chain: %w", err)
	}

	backend, networkName := m.openBackend(chainID)
	balance := m.readBalance(ctx, address)

	m.mu.Lock()
	m.closeBackendLocked()
	m.backend = backend
	m.signer = m.buildSigner(chainID)
	m.state = entity.WalletState{
		IsConnected:   true,
		Address:       address,
		ChainID:       chainID,
		Network:       networkName,
		NativeBalance: balance,
		HasSigner:     m.signer != nil,
	}
	snapshot := m.state
	m.mu.Unlock()

	metrics.RecordWalletTransition("connect")
	m.logger.Info("Wallet connected", "address", address, "chainId", chainID, "network", networkName)

	// Persisting the address must never fail or delay the connect itself.
	go m.persistAddress(address)

	m.notify(snapshot)
	return snapshot, nil
}

// Disconnect implements port.WalletSession.
func (m *SessionManager) Disconnect() {
	m.mu.Lock()
	wasConnected := m.state.IsConnected
	m.closeBackendLocked()
	m.backend = nil
	m.signer = nil
	m.state = entity.WalletState{NativeBalance: "0"}
	snapshot := m.state
	m.mu.Unlock()

	if wasConnected {
		metrics.RecordWalletTransition("disconnect")
		m.logger.Info("Wallet disconnected")
	}
	m.notify(snapshot)
}

// SwitchNetwork implements port.WalletSession. When the wallet reports the
// chain as unknown, its metadata is registered first and the switch retried.
func (m *SessionManager) SwitchNetwork(ctx context.Context, chainID uint64) error {
	if m.bridge == nil || !m.bridge.Available() {
		return entity.ErrWalletUnavailable
	}
	network := m.registry.ByChainID(chainID)
	if network == nil {
		return &entity.ConfigurationError{ChainID: chainID, Reason: "chain is not registered"}
	}

	err := m.bridge.SwitchChain(ctx, chainID)
	if errors.Is(err, ErrUnknownChain) {
		if addErr := m.bridge.AddChain(ctx, *network); addErr != nil {
			return fmt.Errorf("failed to register chain with wallet: %w", addErr)
		}
		err = m.bridge.SwitchChain(ctx, chainID)
	}
	if err != nil {
		return fmt.Errorf("failed to switch to chain %d: %w", chainID, err)
	}

	// The wallet emits chainChanged after a successful switch; apply the
	// same transition directly so callers observe the new state.
	m.HandleChainChanged(ctx, chainID)
	return nil
}

// HandleAccountsChanged applies a wallet-initiated account change. An empty
// account list always forces Disconnected, regardless of prior state.
func (m *SessionManager) HandleAccountsChanged(ctx context.Context, accounts []string) {
	if len(accounts) == 0 {
		m.logger.Info("Wallet reported empty account list, disconnecting")
		m.Disconnect()
		return
	}

	address := accounts[0]
	balance := m.readBalance(ctx, address)

	m.mu.Lock()
	if !m.state.IsConnected {
		m.mu.Unlock()
		return
	}
	m.state.Address = address
	m.state.NativeBalance = balance
	snapshot := m.state
	m.mu.Unlock()

	metrics.RecordWalletTransition("account_change")
	m.logger.Info("Wallet account changed", "address", address)
	go m.persistAddress(address)
	m.notify(snapshot)
}

// HandleChainChanged applies a wallet-initiated chain change. Chain fields
// update in every state; the provider/signer pair is rebuilt only while
// connected, since both are chain-bound handles.
func (m *SessionManager) HandleChainChanged(ctx context.Context, chainID uint64) {
	var networkName string
	if network := m.registry.ByChainID(chainID); network != nil {
		networkName = network.Name
	}

	m.mu.Lock()
	if !m.state.IsConnected {
		m.state.ChainID = chainID
		m.state.Network = networkName
		snapshot := m.state
		m.mu.Unlock()
		m.notify(snapshot)
		return
	}
	address := m.state.Address
	m.mu.Unlock()

	backend, _ := m.openBackend(chainID)
	balance := m.readBalance(ctx, address)

	m.mu.Lock()
	m.closeBackendLocked()
	m.backend = backend
	m.signer = m.buildSigner(chainID)
	m.state.ChainID = chainID
	m.state.Network = networkName
	m.state.NativeBalance = balance
	m.state.HasSigner = m.signer != nil
	snapshot := m.state
	m.mu.Unlock()

	metrics.RecordWalletTransition("chain_change")
	m.logger.Info("Wallet chain changed", "chainId", chainID, "network", networkName)
	m.notify(snapshot)
}

// State implements port.WalletSession.
func (m *SessionManager) State() entity.WalletState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Backend implements port.WalletSession.
func (m *SessionManager) Backend() port.Backend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend
}

// Signer implements port.WalletSession.
func (m *SessionManager) Signer() *bind.TransactOpts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signer
}

// Subscribe implements port.WalletSession. The returned disposer removes the
// listener; disposing twice is harmless.
func (m *SessionManager) Subscribe(l port.WalletListener) func() {
	m.mu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = l
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// notify fans the snapshot out to every listener synchronously, outside the
// state lock.
func (m *SessionManager) notify(snapshot entity.WalletState) {
	m.mu.Lock()
	listeners := make([]port.WalletListener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l.OnStateChange(snapshot)
	}
}

// openBackend dials the registry RPC for the chain. Unknown chains leave the
// session without a backend; facet reads will then report configuration
// errors instead of dialing blind.
func (m *SessionManager) openBackend(chainID uint64) (port.Backend, string) {
	network := m.registry.ByChainID(chainID)
	if network == nil {
		m.logger.Warn("Connected to unregistered chain, no backend available", "chainId", chainID)
		return nil, ""
	}
	backend, err := m.dial(network.RPCURL)
	if err != nil {
		m.logger.Error("Failed to dial chain backend", "network", network.Name, "error", err)
		metrics.RecordRPCCall(network.Identifier, "failed")
		return nil, network.Name
	}
	return backend, network.Name
}

func (m *SessionManager) readBalance(ctx context.Context, address string) string {
	balance, err := m.bridge.NativeBalance(ctx, address)
	if err != nil {
		m.logger.Warn("Failed to read native balance", "address", address, "error", err)
		return "0"
	}
	return utils.FormatBigInt(balance, 18)
}

func (m *SessionManager) buildSigner(chainID uint64) *bind.TransactOpts {
	if m.operatorKey == nil {
		return nil
	}
	signer, err := bind.NewKeyedTransactorWithChainID(m.operatorKey, new(big.Int).SetUint64(chainID))
	if err != nil {
		m.logger.Error("Failed to build signer for chain", "chainId", chainID, "error", err)
		return nil
	}
	return signer
}

// persistAddress writes the connected address to the profile row. Failures
// are logged and never surfaced to the connect path.
func (m *SessionManager) persistAddress(address string) {
	if m.profiles == nil || m.userID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.profiles.SaveWalletAddress(ctx, m.userID, address); err != nil {
		m.logger.Warn("Failed to persist wallet address to profile", "userId", m.userID, "error", err)
	}
}

func (m *SessionManager) closeBackendLocked() {
	if closer, ok := m.backend.(interface{ Close() }); ok && closer != nil {
		closer.Close()
	}
}
