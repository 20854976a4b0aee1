package cow

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/chain"
	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/evm"
)

// TxKind tags a bundle entry. A bundle holds each kind at most once, in
// ascending kind order.
type TxKind int

const (
	TxWrap TxKind = iota + 1
	TxApproval
	TxPresign
)

func (k TxKind) String() string {
	switch k {
	case TxWrap:
		return "wrap"
	case TxApproval:
		return "approval"
	case TxPresign:
		return "presign"
	default:
		return fmt.Sprintf("TxKind(%d)", int(k))
	}
}

var (
	ErrBundleOrder   = errors.New("bundle: transaction out of order")
	ErrBundleSealed  = errors.New("bundle: already sealed")
	ErrBundlePresign = errors.New("bundle: presignature must be last")
	ErrBundleCall    = errors.New("bundle: call does not match its kind")
)

var kindSelectors = map[TxKind][]byte{
	TxWrap:     evm.DepositSelector,
	TxApproval: evm.ApproveSelector,
	TxPresign:  evm.SetPreSignatureSelector,
}

type bundleEntry struct {
	kind TxKind
	tx   evm.MetaTransaction
}

// BundleBuilder collects the transactions that make a posted order fillable.
type BundleBuilder struct {
	chainID uint64
	from    common.Address
	entries []bundleEntry
	sealed  bool
}

func NewBundleBuilder(chainID uint64, from common.Address) *BundleBuilder {
	return &BundleBuilder{chainID: chainID, from: from}
}

// Add appends tx under kind. A nil tx is skipped. tx must call the function
// its kind stands for.
func (b *BundleBuilder) Add(kind TxKind, tx *evm.MetaTransaction) error {
	if b.sealed {
		return ErrBundleSealed
	}
	if kind < TxWrap || kind > TxPresign {
		return fmt.Errorf("%w: unknown kind %d", ErrBundleOrder, int(kind))
	}
	if tx == nil {
		return nil
	}
	if sel := tx.Selector(); !bytes.Equal(sel, kindSelectors[kind]) {
		return fmt.Errorf("%w: %s entry has selector %x", ErrBundleCall, kind, sel)
	}
	if n := len(b.entries); n > 0 && b.entries[n-1].kind >= kind {
		return fmt.Errorf("%w: %s after %s", ErrBundleOrder, kind, b.entries[n-1].kind)
	}
	b.entries = append(b.entries, bundleEntry{kind: kind, tx: *tx})
	return nil
}

// Kinds lists the entry kinds in bundle order.
func (b *BundleBuilder) Kinds() []TxKind {
	out := make([]TxKind, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.kind
	}
	return out
}

// Seal closes the bundle and formats it as a sign request.
func (b *BundleBuilder) Seal() (evm.SignRequestData, error) {
	if b.sealed {
		return evm.SignRequestData{}, ErrBundleSealed
	}
	if n := len(b.entries); n == 0 || b.entries[n-1].kind != TxPresign {
		return evm.SignRequestData{}, ErrBundlePresign
	}
	b.sealed = true

	txs := make([]evm.MetaTransaction, len(b.entries))
	for i, e := range b.entries {
		txs[i] = e.tx
	}
	return evm.SignRequestFor(b.chainID, b.from, txs), nil
}

// PresignTransaction marks uid as signed on the settlement contract.
func PresignTransaction(uid OrderUID) (evm.MetaTransaction, error) {
	raw := uid.Bytes()
	if len(raw) != orderUIDLen {
		return evm.MetaTransaction{}, fmt.Errorf("presign: invalid order uid %q", uid)
	}
	data, err := evm.EncodeSetPreSignature(raw, true)
	if err != nil {
		return evm.MetaTransaction{}, err
	}
	return evm.NewMetaTransaction(chain.SettlementContract, nil, data), nil
}
