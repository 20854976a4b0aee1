package cow

import (
	"fmt"
	"math/big"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/chain"
	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/evm"
)

// NormalizedRequest is a quote request whose sell token is an ERC-20.
// WrapTx is set when the caller sold the native asset.
type NormalizedRequest struct {
	Request QuoteRequest
	Chain   chain.Chain
	WrapTx  *evm.MetaTransaction
}

// Normalize swaps a native sell asset for the chain's wrapped token and
// returns the deposit call that produces it. req is not modified.
func Normalize(chainID uint64, req QuoteRequest) (NormalizedRequest, error) {
	c, ok := chain.Lookup(chainID)
	if !ok {
		return NormalizedRequest{}, fmt.Errorf("%w: unsupported chain %d", ErrConfiguration, chainID)
	}

	out := NormalizedRequest{Request: req.clone(), Chain: c}
	if !chain.IsNativeAsset(req.SellToken) {
		return out, nil
	}

	amount, ok := new(big.Int).SetString(req.SellAmountBeforeFee, 10)
	if !ok || amount.Sign() <= 0 {
		return NormalizedRequest{}, fmt.Errorf("%w: cannot wrap sellAmountBeforeFee %q", ErrValidation, req.SellAmountBeforeFee)
	}

	wrap := evm.NewMetaTransaction(c.WrappedNative, amount, evm.EncodeDeposit())
	out.Request.SellToken = c.WrappedNative
	out.WrapTx = &wrap
	return out, nil
}
