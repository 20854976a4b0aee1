package evm

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/Checker-Finance/cow-adapters/pkg/utils"
)

// ContractCaller executes read-only contract calls. *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Dialer opens a ContractCaller for an RPC URL.
type Dialer func(ctx context.Context, rpcURL string) (ContractCaller, error)

// RPCResolver returns the JSON-RPC endpoint for a chain.
type RPCResolver interface {
	RPCURL(ctx context.Context, chainID uint64) (string, error)
}

// DialEthClient is the production Dialer.
func DialEthClient(ctx context.Context, rpcURL string) (ContractCaller, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// AllowanceReader reads ERC-20 allowances over JSON-RPC. Clients are dialled
// lazily, one per chain, and replaced when the chain's endpoint changes.
type AllowanceReader struct {
	logger    *zap.Logger
	endpoints RPCResolver
	dial      Dialer

	mu      sync.Mutex
	clients map[uint64]rpcClient
}

type rpcClient struct {
	url    string
	caller ContractCaller
}

// NewAllowanceReader constructs a reader. A nil dial uses DialEthClient.
func NewAllowanceReader(logger *zap.Logger, endpoints RPCResolver, dial Dialer) *AllowanceReader {
	if dial == nil {
		dial = DialEthClient
	}
	return &AllowanceReader{
		logger:    logger,
		endpoints: endpoints,
		dial:      dial,
		clients:   make(map[uint64]rpcClient),
	}
}

// Connect resolves and dials chainID's endpoint without reading any state.
func (r *AllowanceReader) Connect(ctx context.Context, chainID uint64) error {
	_, err := r.client(ctx, chainID)
	return err
}

func (r *AllowanceReader) client(ctx context.Context, chainID uint64) (ContractCaller, error) {
	url, err := r.endpoints.RPCURL(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("rpc endpoint for chain %d: %w", chainID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.clients[chainID]
	if ok && prev.url == url {
		return prev.caller, nil
	}

	c, err := r.dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", utils.MaskURL(url), err)
	}
	r.clients[chainID] = rpcClient{url: url, caller: c}

	if ok {
		closeCaller(prev.caller)
		r.logger.Info("evm.rpc_rotated",
			zap.Uint64("chain_id", chainID),
			zap.String("previous", utils.MaskURL(prev.url)),
			zap.String("rpc", utils.MaskURL(url)))
		return c, nil
	}
	r.logger.Info("evm.rpc_connected",
		zap.Uint64("chain_id", chainID),
		zap.String("rpc", utils.MaskURL(url)))
	return c, nil
}

// Allowance returns token.allowance(owner, spender) at the latest block.
func (r *AllowanceReader) Allowance(ctx context.Context, chainID uint64, token, owner, spender common.Address) (*big.Int, error) {
	c, err := r.client(ctx, chainID)
	if err != nil {
		return nil, err
	}

	data, err := EncodeAllowance(owner, spender)
	if err != nil {
		return nil, err
	}

	ret, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("allowance call on %s: %w", token.Hex(), err)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("allowance call on %s returned no data (not a token contract?)", token.Hex())
	}
	return DecodeAllowance(ret)
}

// Close releases dialled clients that support closing.
func (r *AllowanceReader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		closeCaller(c.caller)
		delete(r.clients, id)
	}
}

func closeCaller(c ContractCaller) {
	if cl, ok := c.(interface{ Close() }); ok {
		cl.Close()
	}
}
