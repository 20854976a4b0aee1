package cow

import (
	"fmt"
	"math/big"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/evm"
)

// parseAmount parses a base-10 uint256 token amount.
func parseAmount(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q is not an integer", ErrArithmetic, field, s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s %s is negative", ErrArithmetic, field, s)
	}
	if v.Cmp(evm.MaxUint256) > 0 {
		return nil, fmt.Errorf("%w: %s %s overflows uint256", ErrArithmetic, field, s)
	}
	return v, nil
}

func checkUint256(field string, v *big.Int) error {
	if v.Cmp(evm.MaxUint256) > 0 {
		return fmt.Errorf("%w: %s overflows uint256", ErrArithmetic, field)
	}
	return nil
}
