package cow

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/chain"
	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/evm"
)

// ApprovalMode selects the approve amount when an allowance is short.
type ApprovalMode string

const (
	ApprovalMax   ApprovalMode = "max"
	ApprovalExact ApprovalMode = "exact"
)

// ParseApprovalMode accepts "max" or "exact", case-insensitively. Empty means max.
func ParseApprovalMode(s string) (ApprovalMode, error) {
	switch m := ApprovalMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ApprovalMax:
		return ApprovalMax, nil
	case ApprovalExact:
		return ApprovalExact, nil
	default:
		return "", fmt.Errorf("%w: unknown approval mode %q", ErrConfiguration, s)
	}
}

// AllowanceReader reads ERC-20 allowances from chain state. Connect reports
// whether the chain's node is reachable and configured.
type AllowanceReader interface {
	Connect(ctx context.Context, chainID uint64) error
	Allowance(ctx context.Context, chainID uint64, token, owner, spender common.Address) (*big.Int, error)
}

// ApprovalFor decides whether allowance covers amount. It returns nil when
// it does, otherwise an approve call for the vault relayer.
func ApprovalFor(token common.Address, allowance, amount *big.Int, mode ApprovalMode) (*evm.MetaTransaction, error) {
	if allowance.Cmp(amount) >= 0 {
		return nil, nil
	}

	approve := evm.MaxUint256
	if mode == ApprovalExact {
		approve = amount
	}
	data, err := evm.EncodeApprove(chain.VaultRelayer, approve)
	if err != nil {
		return nil, err
	}
	tx := evm.NewMetaTransaction(token, nil, data)
	return &tx, nil
}

// ApprovalResolver checks the owner's allowance to the vault relayer.
type ApprovalResolver struct {
	reader AllowanceReader
	mode   ApprovalMode
}

func NewApprovalResolver(reader AllowanceReader, mode ApprovalMode) *ApprovalResolver {
	return &ApprovalResolver{reader: reader, mode: mode}
}

// Preflight fails with ErrConfiguration when chainID has no usable node.
func (r *ApprovalResolver) Preflight(ctx context.Context, chainID uint64) error {
	if err := r.reader.Connect(ctx, chainID); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// Resolve returns the approval needed for owner to sell amount of token, or nil.
func (r *ApprovalResolver) Resolve(ctx context.Context, chainID uint64, token, owner common.Address, amount *big.Int) (*evm.MetaTransaction, error) {
	allowance, err := r.reader.Allowance(ctx, chainID, token, owner, chain.VaultRelayer)
	if err != nil {
		return nil, fmt.Errorf("%w: read allowance: %w", ErrSubmission, err)
	}
	tx, err := ApprovalFor(token, allowance, amount, r.mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	return tx, nil
}
