package cow

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssembleOrder maps an adjusted quote onto the order-book order schema.
// The fee is already part of sellAmount, so feeAmount is "0". The order is
// authorised later by an on-chain presignature from the quote's owner.
func AssembleOrder(resp QuoteResponse, appDataHash common.Hash) (OrderCreation, error) {
	if resp.From == nil || *resp.From == (common.Address{}) {
		return OrderCreation{}, fmt.Errorf("%w: quote response has no owner", ErrSubmission)
	}
	q := resp.Quote
	owner := *resp.From

	sellBalance := q.SellTokenBalance
	if sellBalance == "" {
		sellBalance = BalanceERC20
	}
	buyBalance := q.BuyTokenBalance
	if buyBalance == "" {
		buyBalance = BalanceERC20
	}

	order := OrderCreation{
		SellToken:         q.SellToken,
		BuyToken:          q.BuyToken,
		SellAmount:        q.SellAmount,
		BuyAmount:         q.BuyAmount,
		ValidTo:           q.ValidTo,
		FeeAmount:         "0",
		Kind:              q.Kind,
		PartiallyFillable: q.PartiallyFillable,
		SellTokenBalance:  sellBalance,
		BuyTokenBalance:   buyBalance,
		SigningScheme:     SigningSchemePresign,
		Signature:         owner.Hex(),
		From:              owner,
		AppData:           appDataHash.Hex(),
	}
	if q.Receiver != nil {
		r := *q.Receiver
		order.Receiver = &r
	}
	if resp.ID != nil {
		id := *resp.ID
		order.QuoteID = &id
	}
	return order, nil
}
