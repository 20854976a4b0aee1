package cow

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxSlippageBps is the exclusive upper bound for slippage tolerance.
const MaxSlippageBps = 10000

var bpsDenominator = big.NewInt(MaxSlippageBps)

// CheckSlippage returns a configuration error for bps outside [0, 10000).
func CheckSlippage(bps int) error {
	if bps < 0 || bps >= MaxSlippageBps {
		return fmt.Errorf("%w: slippage %d bps outside [0, %d)", ErrConfiguration, bps, MaxSlippageBps)
	}
	return nil
}

// SlippagePercent renders bps as a percentage, e.g. 100 -> 1.
func SlippagePercent(bps int) decimal.Decimal {
	return decimal.New(int64(bps), -2)
}

// AdjustQuote folds the fee into the sell amount and applies slippage for
// the quote's kind. minSell, when set, is the pre-fee amount the caller asked
// to sell; the adjusted sell amount may not fall below it. q is not modified.
func AdjustQuote(q Quote, slippageBps int, minSell *big.Int) (Quote, error) {
	if err := CheckSlippage(slippageBps); err != nil {
		return Quote{}, err
	}

	folded, err := FoldFee(q)
	if err != nil {
		return Quote{}, err
	}
	if minSell != nil {
		sell, _ := new(big.Int).SetString(folded.SellAmount, 10)
		if sell.Cmp(minSell) < 0 {
			return Quote{}, fmt.Errorf("%w: sellAmount %s is below requested %s", ErrArithmetic, sell, minSell)
		}
	}
	return ApplySlippage(folded, slippageBps)
}

// FoldFee returns q with sellAmount = sellAmount + feeAmount.
func FoldFee(q Quote) (Quote, error) {
	sell, err := parseAmount("sellAmount", q.SellAmount)
	if err != nil {
		return Quote{}, err
	}
	fee, err := parseAmount("feeAmount", q.FeeAmount)
	if err != nil {
		return Quote{}, err
	}

	sum := new(big.Int).Add(sell, fee)
	if err := checkUint256("sellAmount+feeAmount", sum); err != nil {
		return Quote{}, err
	}
	if sum.Sign() == 0 {
		return Quote{}, fmt.Errorf("%w: sellAmount after fee is zero", ErrArithmetic)
	}

	out := q
	out.SellAmount = sum.String()
	return out, nil
}

// ApplySlippage tightens the non-fixed side of q. Sell orders receive at least
// floor(buy*(10000-bps)/10000); buy orders spend at most floor(sell*(10000+bps)/10000).
func ApplySlippage(q Quote, slippageBps int) (Quote, error) {
	if err := CheckSlippage(slippageBps); err != nil {
		return Quote{}, err
	}

	out := q
	switch q.Kind {
	case KindSell:
		buy, err := parseAmount("buyAmount", q.BuyAmount)
		if err != nil {
			return Quote{}, err
		}
		if buy.Sign() == 0 {
			return Quote{}, fmt.Errorf("%w: quoted buyAmount is zero", ErrArithmetic)
		}
		adj := scaleBps(buy, MaxSlippageBps-slippageBps)
		if adj.Sign() == 0 {
			return Quote{}, fmt.Errorf("%w: buyAmount %s rounds to zero at %d bps", ErrArithmetic, buy, slippageBps)
		}
		out.BuyAmount = adj.String()

	case KindBuy:
		sell, err := parseAmount("sellAmount", q.SellAmount)
		if err != nil {
			return Quote{}, err
		}
		if sell.Sign() == 0 {
			return Quote{}, fmt.Errorf("%w: quoted sellAmount is zero", ErrArithmetic)
		}
		adj := scaleBps(sell, MaxSlippageBps+slippageBps)
		if err := checkUint256("sellAmount with slippage", adj); err != nil {
			return Quote{}, err
		}
		out.SellAmount = adj.String()

	default:
		return Quote{}, fmt.Errorf("%w: unknown order kind %q", ErrSubmission, q.Kind)
	}
	return out, nil
}

func scaleBps(v *big.Int, factor int) *big.Int {
	r := new(big.Int).Mul(v, big.NewInt(int64(factor)))
	return r.Quo(r, bpsDenominator)
}
