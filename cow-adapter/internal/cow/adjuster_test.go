package cow

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/evm"
)

// ─── FoldFee ──────────────────────────────────────────────────────────────────

func TestFoldFee_ExactAddition(t *testing.T) {
	q := Quote{SellAmount: "990000000000000000", FeeAmount: "10000000000000000", BuyAmount: "1", Kind: KindSell}

	out, err := FoldFee(q)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", out.SellAmount)
	assert.Equal(t, "990000000000000000", q.SellAmount, "input must not change")
}

func TestFoldFee_BeyondUint64(t *testing.T) {
	q := Quote{SellAmount: "340282366920938463463374607431768211456", FeeAmount: "1", Kind: KindSell}

	out, err := FoldFee(q)
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211457", out.SellAmount)
}

func TestFoldFee_Errors(t *testing.T) {
	cases := map[string]Quote{
		"negative sell":  {SellAmount: "-1", FeeAmount: "0"},
		"garbage fee":    {SellAmount: "1", FeeAmount: "1e18"},
		"empty sell":     {SellAmount: "", FeeAmount: "1"},
		"zero total":     {SellAmount: "0", FeeAmount: "0"},
		"sum overflows":  {SellAmount: evm.MaxUint256.String(), FeeAmount: "1"},
		"input overflow": {SellAmount: new(big.Int).Lsh(big.NewInt(1), 256).String(), FeeAmount: "0"},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FoldFee(q)
			require.ErrorIs(t, err, ErrArithmetic)
		})
	}
}

// ─── ApplySlippage ────────────────────────────────────────────────────────────

func TestApplySlippage_SellFloorsBuyAmount(t *testing.T) {
	for _, tc := range []struct {
		buy  string
		bps  int
		want string
	}{
		{"500000000", 100, "495000000"},
		{"500000000", 0, "500000000"},
		{"999", 100, "989"}, // 989.01 floors
		{"10000", 9999, "1"},
	} {
		t.Run(fmt.Sprintf("%s@%d", tc.buy, tc.bps), func(t *testing.T) {
			out, err := ApplySlippage(Quote{SellAmount: "7", BuyAmount: tc.buy, Kind: KindSell}, tc.bps)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.BuyAmount)
			assert.Equal(t, "7", out.SellAmount)
		})
	}
}

func TestApplySlippage_SellBounds(t *testing.T) {
	buy := big.NewInt(123456789)
	for bps := 0; bps < MaxSlippageBps; bps += 37 {
		out, err := ApplySlippage(Quote{SellAmount: "1", BuyAmount: buy.String(), Kind: KindSell}, bps)
		require.NoError(t, err)

		got, _ := new(big.Int).SetString(out.BuyAmount, 10)
		want := new(big.Int).Mul(buy, big.NewInt(int64(MaxSlippageBps-bps)))
		want.Quo(want, big.NewInt(MaxSlippageBps))
		assert.Equal(t, want, got, "bps=%d", bps)
		assert.True(t, got.Sign() > 0 && got.Cmp(buy) <= 0, "bps=%d", bps)
	}
}

func TestApplySlippage_BuyRaisesSellAmount(t *testing.T) {
	out, err := ApplySlippage(Quote{SellAmount: "1000000", BuyAmount: "5", Kind: KindBuy}, 50)
	require.NoError(t, err)
	assert.Equal(t, "1005000", out.SellAmount)
	assert.Equal(t, "5", out.BuyAmount)

	_, err = ApplySlippage(Quote{SellAmount: evm.MaxUint256.String(), BuyAmount: "5", Kind: KindBuy}, 1)
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestApplySlippage_Errors(t *testing.T) {
	_, err := ApplySlippage(Quote{BuyAmount: "0", Kind: KindSell}, 100)
	require.ErrorIs(t, err, ErrArithmetic)

	_, err = ApplySlippage(Quote{BuyAmount: "1", Kind: KindSell}, 100)
	require.ErrorIs(t, err, ErrArithmetic, "rounds to zero")

	_, err = ApplySlippage(Quote{BuyAmount: "1", Kind: "limit"}, 100)
	require.ErrorIs(t, err, ErrSubmission)

	for _, bps := range []int{-1, MaxSlippageBps, 20000} {
		_, err = ApplySlippage(Quote{BuyAmount: "100", Kind: KindSell}, bps)
		require.ErrorIs(t, err, ErrConfiguration, "bps=%d", bps)
	}
}

// ─── AdjustQuote ──────────────────────────────────────────────────────────────

func TestAdjustQuote_MainnetScenario(t *testing.T) {
	q := sellQuote(testWETH).Quote

	out, err := AdjustQuote(q, 100, big.NewInt(1_000_000_000_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", out.SellAmount)
	assert.Equal(t, "495000000", out.BuyAmount)
	assert.Equal(t, "10000000000000000", out.FeeAmount)
	assert.Equal(t, "500000000", q.BuyAmount)
}

func TestAdjustQuote_BelowRequestedSell(t *testing.T) {
	q := Quote{SellAmount: "900", FeeAmount: "50", BuyAmount: "10", Kind: KindSell}

	_, err := AdjustQuote(q, 100, big.NewInt(1000))
	require.ErrorIs(t, err, ErrArithmetic)

	_, err = AdjustQuote(q, 100, nil)
	require.NoError(t, err)
}

func TestAdjustQuote_BadSlippageBeforeArithmetic(t *testing.T) {
	_, err := AdjustQuote(Quote{SellAmount: "bad"}, 10000, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestSlippagePercent(t *testing.T) {
	assert.Equal(t, "1", SlippagePercent(100).String())
	assert.Equal(t, "0.5", SlippagePercent(50).String())
}
