package cow

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ValidateSellRequest rejects anything that is not a sell order with a
// positive pre-fee sell amount. It does no I/O.
func ValidateSellRequest(req QuoteRequest) error {
	if req.Kind != KindSell {
		return fmt.Errorf("%w: quote request is not a sell order (kind %q)", ErrValidation, req.Kind)
	}
	if req.SellAmountBeforeFee == "" {
		return fmt.Errorf("%w: sell order is missing sellAmountBeforeFee", ErrValidation)
	}
	amount, err := parseAmount("sellAmountBeforeFee", req.SellAmountBeforeFee)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if amount.Sign() == 0 {
		return fmt.Errorf("%w: sellAmountBeforeFee must be positive", ErrValidation)
	}
	if req.From == (common.Address{}) {
		return fmt.Errorf("%w: from address is required", ErrValidation)
	}
	if req.SellToken == (common.Address{}) || req.BuyToken == (common.Address{}) {
		return fmt.Errorf("%w: sellToken and buyToken are required", ErrValidation)
	}
	if req.SellToken == req.BuyToken {
		return fmt.Errorf("%w: sellToken and buyToken must differ", ErrValidation)
	}
	return nil
}

// CheckQuote rejects a quote that does not answer req: another order kind,
// token pair or owner. A missing owner is left to AssembleOrder.
func CheckQuote(req QuoteRequest, resp *QuoteResponse) error {
	q := resp.Quote
	if q.Kind != req.Kind {
		return fmt.Errorf("%w: quote kind %q for a %q request", ErrSubmission, q.Kind, req.Kind)
	}
	if q.SellToken != req.SellToken {
		return fmt.Errorf("%w: quote sells %s, requested %s", ErrSubmission, q.SellToken.Hex(), req.SellToken.Hex())
	}
	if q.BuyToken != req.BuyToken {
		return fmt.Errorf("%w: quote buys %s, requested %s", ErrSubmission, q.BuyToken.Hex(), req.BuyToken.Hex())
	}
	if resp.From != nil && *resp.From != req.From {
		return fmt.Errorf("%w: quote owner %s, requested %s", ErrSubmission, resp.From.Hex(), req.From.Hex())
	}
	return nil
}
