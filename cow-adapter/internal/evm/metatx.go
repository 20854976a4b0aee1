package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MetaTransaction is one call in a batch: target, attached native value and calldata.
type MetaTransaction struct {
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}

// NewMetaTransaction copies value so later changes to the caller's big.Int do not leak in.
func NewMetaTransaction(to common.Address, value *big.Int, data []byte) MetaTransaction {
	v := new(big.Int)
	if value != nil {
		v.Set(value)
	}
	return MetaTransaction{
		To:    to,
		Value: (*hexutil.Big)(v),
		Data:  append(hexutil.Bytes(nil), data...),
	}
}

// ValueInt returns the call value as a big.Int copy.
func (m MetaTransaction) ValueInt() *big.Int {
	if m.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(m.Value.ToInt())
}

// Selector returns the 4-byte function selector, or nil for a plain transfer.
func (m MetaTransaction) Selector() []byte {
	if len(m.Data) < 4 {
		return nil
	}
	return m.Data[:4]
}

// TransactionParams is one eth_sendTransaction parameter object.
type TransactionParams struct {
	From  *common.Address `json:"from,omitempty"`
	To    common.Address  `json:"to"`
	Value *hexutil.Big    `json:"value"`
	Data  hexutil.Bytes   `json:"data"`
}

// SignRequestData is a wallet sign request for a batch of calls on one chain.
type SignRequestData struct {
	Method  string              `json:"method"`
	ChainID uint64              `json:"chainId"`
	Params  []TransactionParams `json:"params"`
}

// SignRequestFor formats txs as an eth_sendTransaction request on chainID.
// from is optional; the zero address leaves it to the wallet.
func SignRequestFor(chainID uint64, from common.Address, txs []MetaTransaction) SignRequestData {
	var sender *common.Address
	if from != (common.Address{}) {
		f := from
		sender = &f
	}

	params := make([]TransactionParams, 0, len(txs))
	for _, tx := range txs {
		params = append(params, TransactionParams{
			From:  sender,
			To:    tx.To,
			Value: (*hexutil.Big)(tx.ValueInt()),
			Data:  tx.Data,
		})
	}
	return SignRequestData{
		Method:  "eth_sendTransaction",
		ChainID: chainID,
		Params:  params,
	}
}
