package cow

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/evm"
)

// OrderKind is the side whose amount is fixed.
type OrderKind string

const (
	KindSell OrderKind = "sell"
	KindBuy  OrderKind = "buy"
)

const (
	SigningSchemePresign = "presign"
	BalanceERC20         = "erc20"
)

// QuoteRequest is the order-book quote request body (POST /api/v1/quote).
type QuoteRequest struct {
	SellToken           common.Address  `json:"sellToken"`
	BuyToken            common.Address  `json:"buyToken"`
	Receiver            *common.Address `json:"receiver,omitempty"`
	ValidTo             *uint32         `json:"validTo,omitempty"`
	ValidFor            *uint32         `json:"validFor,omitempty"`
	AppData             string          `json:"appData,omitempty"`
	AppDataHash         string          `json:"appDataHash,omitempty"`
	PartiallyFillable   bool            `json:"partiallyFillable,omitempty"`
	SellTokenBalance    string          `json:"sellTokenBalance,omitempty"`
	BuyTokenBalance     string          `json:"buyTokenBalance,omitempty"`
	From                common.Address  `json:"from"`
	PriceQuality        string          `json:"priceQuality,omitempty"`
	SigningScheme       string          `json:"signingScheme,omitempty"`
	OnchainOrder        bool            `json:"onchainOrder,omitempty"`
	Kind                OrderKind       `json:"kind"`
	SellAmountBeforeFee string          `json:"sellAmountBeforeFee,omitempty"`
	SellAmountAfterFee  string          `json:"sellAmountAfterFee,omitempty"`
	BuyAmountAfterFee   string          `json:"buyAmountAfterFee,omitempty"`
}

// clone returns a copy that shares no pointers with r.
func (r QuoteRequest) clone() QuoteRequest {
	out := r
	if r.Receiver != nil {
		v := *r.Receiver
		out.Receiver = &v
	}
	if r.ValidTo != nil {
		v := *r.ValidTo
		out.ValidTo = &v
	}
	if r.ValidFor != nil {
		v := *r.ValidFor
		out.ValidFor = &v
	}
	return out
}

// ParsedQuoteRequest is the flow input: a quote request bound to a chain.
type ParsedQuoteRequest struct {
	ChainID      uint64       `json:"chainId"`
	QuoteRequest QuoteRequest `json:"quoteRequest"`
}

// Quote is the order parameters proposed by the order book. Amounts are
// base-10 integers in the token's smallest unit.
type Quote struct {
	SellToken         common.Address  `json:"sellToken"`
	BuyToken          common.Address  `json:"buyToken"`
	Receiver          *common.Address `json:"receiver,omitempty"`
	SellAmount        string          `json:"sellAmount"`
	BuyAmount         string          `json:"buyAmount"`
	ValidTo           uint32          `json:"validTo"`
	AppData           string          `json:"appData"`
	AppDataHash       string          `json:"appDataHash,omitempty"`
	FeeAmount         string          `json:"feeAmount"`
	Kind              OrderKind       `json:"kind"`
	PartiallyFillable bool            `json:"partiallyFillable"`
	SellTokenBalance  string          `json:"sellTokenBalance,omitempty"`
	BuyTokenBalance   string          `json:"buyTokenBalance,omitempty"`
	SigningScheme     string          `json:"signingScheme,omitempty"`
}

// QuoteResponse is the envelope returned by POST /api/v1/quote.
type QuoteResponse struct {
	Quote      Quote           `json:"quote"`
	From       *common.Address `json:"from,omitempty"`
	Expiration string          `json:"expiration"`
	ID         *int64          `json:"id,omitempty"`
	Verified   bool            `json:"verified"`
}

// OrderCreation is the body of POST /api/v1/orders.
type OrderCreation struct {
	SellToken         common.Address  `json:"sellToken"`
	BuyToken          common.Address  `json:"buyToken"`
	Receiver          *common.Address `json:"receiver,omitempty"`
	SellAmount        string          `json:"sellAmount"`
	BuyAmount         string          `json:"buyAmount"`
	ValidTo           uint32          `json:"validTo"`
	FeeAmount         string          `json:"feeAmount"`
	Kind              OrderKind       `json:"kind"`
	PartiallyFillable bool            `json:"partiallyFillable"`
	SellTokenBalance  string          `json:"sellTokenBalance"`
	BuyTokenBalance   string          `json:"buyTokenBalance"`
	SigningScheme     string          `json:"signingScheme"`
	Signature         string          `json:"signature"`
	From              common.Address  `json:"from"`
	QuoteID           *int64          `json:"quoteId,omitempty"`
	AppData           string          `json:"appData"`
	AppDataHash       string          `json:"appDataHash,omitempty"`
}

// OrderUID identifies a posted order: order digest, owner and validTo, 56 bytes.
type OrderUID string

const orderUIDLen = 56

// ParseOrderUID checks s is a 0x-prefixed 56-byte hex string.
func ParseOrderUID(s string) (OrderUID, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return "", fmt.Errorf("order uid %q: %w", s, err)
	}
	if len(b) != orderUIDLen {
		return "", fmt.Errorf("order uid %q: want %d bytes, got %d", s, orderUIDLen, len(b))
	}
	return OrderUID(strings.ToLower(s)), nil
}

// Bytes returns the raw uid. It is only valid for uids from ParseOrderUID.
func (u OrderUID) Bytes() []byte {
	return common.FromHex(string(u))
}

func (u OrderUID) String() string { return string(u) }

// OrderMeta carries links for the caller.
type OrderMeta struct {
	OrderURL string `json:"orderUrl"`
}

// OrderFlowResult is the output of a successful flow.
type OrderFlowResult struct {
	Transaction evm.SignRequestData `json:"transaction"`
	Meta        OrderMeta           `json:"meta"`
	OrderUID    OrderUID            `json:"-"`
}
