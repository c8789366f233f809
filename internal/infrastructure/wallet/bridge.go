package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/domain/entity"
)

// ErrUnknownChain is returned by SwitchChain when the wallet does not know
// the requested chain and it must be registered first.
var ErrUnknownChain = errors.New("chain unknown to wallet")

// Bridge abstracts the wallet transport: account access, chain control and
// balance reads. The production implementation speaks JSON-RPC; tests use an
// in-memory fake.
type Bridge interface {
	// Available reports whether a wallet transport was detected at all.
	Available() bool

	// RequestAccounts asks the wallet to expose its accounts, prompting the
	// user when required.
	RequestAccounts(ctx context.Context) ([]string, error)

	// ChainID returns the wallet's active chain.
	ChainID(ctx context.Context) (uint64, error)

	// NativeBalance returns the native-currency balance of the address in wei.
	NativeBalance(ctx context.Context, address string) (*big.Int, error)

	// SwitchChain asks the wallet to change its active chain. Returns
	// ErrUnknownChain when the wallet has no metadata for it.
	SwitchChain(ctx context.Context, chainID uint64) error

	// AddChain registers a chain's RPC/explorer metadata with the wallet.
	AddChain(ctx context.Context, cfg entity.NetworkConfig) error
}

// rpcBridge implements Bridge over a JSON-RPC connection using the standard
// eth_* and wallet_* methods.
type rpcBridge struct {
	client *rpc.Client
	logger port.Logger
}

// NewRPCBridge dials the wallet RPC endpoint. An empty URL yields an
// unavailable bridge rather than an error, matching the "no extension
// detected" case.
func NewRPCBridge(rawURL string, log port.Logger) (Bridge, error) {
	if rawURL == "" {
		return &rpcBridge{logger: log}, nil
	}
	client, err := rpc.Dial(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet RPC %s: %w", rawURL, err)
	}
	return &rpcBridge{client: client, logger: log}, nil
}

func (b *rpcBridge) Available() bool {
	return b.client != nil
}

func (b *rpcBridge) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	err := b.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if err != nil {
		// Plain nodes do not implement the prompt variant.
		b.logger.Debug("eth_requestAccounts unsupported, falling back to eth_accounts", "error", err)
		if fallbackErr := b.client.CallContext(ctx, &accounts, "eth_accounts"); fallbackErr != nil {
			return nil, fmt.Errorf("failed to request accounts: %w", fallbackErr)
		}
	}
	return accounts, nil
}

func (b *rpcBridge) ChainID(ctx context.Context) (uint64, error) {
	var result hexutil.Big
	if err := b.client.CallContext(ctx, &result, "eth_chainId"); err != nil {
		return 0, fmt.Errorf("failed to read chain id: %w", err)
	}
	return (*big.Int)(&result).Uint64(), nil
}

func (b *rpcBridge) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	var result hexutil.Big
	if err := b.client.CallContext(ctx, &result, "eth_getBalance", common.HexToAddress(address), "latest"); err != nil {
		return nil, fmt.Errorf("failed to read native balance: %w", err)
	}
	return (*big.Int)(&result), nil
}

func (b *rpcBridge) SwitchChain(ctx context.Context, chainID uint64) error {
	param := map[string]string{"chainId": hexutil.EncodeUint64(chainID)}
	err := b.client.CallContext(ctx, nil, "wallet_switchEthereumChain", param)
	if err == nil {
		return nil
	}
	// 4902 is the wallet convention for "add this chain first".
	if strings.Contains(err.Error(), "4902") || strings.Contains(strings.ToLower(err.Error()), "unrecognized chain") {
		return ErrUnknownChain
	}
	return fmt.Errorf("failed to switch chain: %w", err)
}

func (b *rpcBridge) AddChain(ctx context.Context, cfg entity.NetworkConfig) error {
	param := map[string]interface{}{
		"chainId":   hexutil.EncodeUint64(cfg.ChainID),
		"chainName": cfg.Name,
		"nativeCurrency": map[string]interface{}{
			"name":     cfg.NativeSymbol,
			"symbol":   cfg.NativeSymbol,
			"decimals": cfg.Decimals,
		},
		"rpcUrls": []string{cfg.RPCURL},
	}
	if cfg.BlockExplorerURL != "" {
		param["blockExplorerUrls"] = []string{cfg.BlockExplorerURL}
	}
	if err := b.client.CallContext(ctx, nil, "wallet_addEthereumChain", param); err != nil {
		return fmt.Errorf("failed to add chain %d to wallet: %w", cfg.ChainID, err)
	}
	return nil
}
