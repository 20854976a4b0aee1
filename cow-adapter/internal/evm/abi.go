package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	erc20ABIJSON = `[
		{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
		{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
	]`
	wethABIJSON = `[
		{"inputs":[],"name":"deposit","outputs":[],"stateMutability":"payable","type":"function"}
	]`
	settlementABIJSON = `[
		{"inputs":[{"name":"orderUid","type":"bytes"},{"name":"signed","type":"bool"}],"name":"setPreSignature","outputs":[],"stateMutability":"nonpayable","type":"function"}
	]`
)

var (
	erc20ABI      = mustParseABI(erc20ABIJSON)
	wethABI       = mustParseABI(wethABIJSON)
	settlementABI = mustParseABI(settlementABIJSON)

	// Selectors of the calls a presign bundle is made of.
	DepositSelector         = wethABI.Methods["deposit"].ID
	ApproveSelector         = erc20ABI.Methods["approve"].ID
	SetPreSignatureSelector = settlementABI.Methods["setPreSignature"].ID

	// MaxUint256 is 2^256 - 1, the conventional "unlimited" approval amount.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("evm: invalid ABI definition: " + err.Error())
	}
	return parsed
}

// EncodeApprove packs ERC-20 approve(spender, amount).
func EncodeApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("approve amount must be non-negative")
	}
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve: %w", err)
	}
	return data, nil
}

// EncodeAllowance packs ERC-20 allowance(owner, spender).
func EncodeAllowance(owner, spender common.Address) ([]byte, error) {
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance: %w", err)
	}
	return data, nil
}

// DecodeAllowance unpacks the uint256 returned by allowance(owner, spender).
func DecodeAllowance(ret []byte) (*big.Int, error) {
	out, err := erc20ABI.Unpack("allowance", ret)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack allowance: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("allowance returned %d values", len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("allowance returned %T", out[0])
	}
	return v, nil
}

// EncodeDeposit packs WETH-style deposit().
func EncodeDeposit() []byte {
	data, err := wethABI.Pack("deposit")
	if err != nil {
		panic("evm: pack deposit: " + err.Error())
	}
	return data
}

// EncodeSetPreSignature packs GPv2Settlement setPreSignature(orderUid, signed).
func EncodeSetPreSignature(orderUID []byte, signed bool) ([]byte, error) {
	data, err := settlementABI.Pack("setPreSignature", orderUID, signed)
	if err != nil {
		return nil, fmt.Errorf("failed to pack setPreSignature: %w", err)
	}
	return data, nil
}
