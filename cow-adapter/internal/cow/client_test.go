package cow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/chain"
)

func TestClient_GetQuote(t *testing.T) {
	ob := newMockOrderbook(t, sellQuote(testWETH))
	c := newTestClient(ob.server.URL + "/")

	resp, err := c.GetQuote(context.Background(), chain.Mainnet, sellRequest(testWETH).QuoteRequest)
	require.NoError(t, err)
	assert.Equal(t, "500000000", resp.Quote.BuyAmount)
	require.NotNil(t, resp.ID)
	assert.Equal(t, int64(42), *resp.ID)
	require.NotNil(t, resp.From)
	assert.Equal(t, testTrader, *resp.From)
	assert.Len(t, ob.quoteReqs, 1)
}

func TestClient_ErrorResponse(t *testing.T) {
	ob := newMockOrderbook(t, nil)
	c := newTestClient(ob.server.URL)

	_, err := c.GetQuote(context.Background(), chain.Mainnet, sellRequest(testWETH).QuoteRequest)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "orderbook returned 400: NoLiquidity: no route found", apiErr.Error())
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden\n"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SendOrder(context.Background(), chain.Mainnet, OrderCreation{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "forbidden", apiErr.Description)
}

func TestClient_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetQuote(context.Background(), chain.Mainnet, QuoteRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_ServerErrorKeepsOrderbookDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]string{"errorType": "InternalServerError", "description": "quote estimator unavailable"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetQuote(context.Background(), chain.Mainnet, QuoteRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "InternalServerError", apiErr.ErrorType)
	assert.Equal(t, "quote estimator unavailable", apiErr.Description)
}

func TestClient_PostAppData(t *testing.T) {
	ob := newMockOrderbook(t, nil)
	c := newTestClient(ob.server.URL)
	hash := common.HexToHash("0xabc123")

	got, err := c.PostAppData(context.Background(), chain.Mainnet, hash, `{"appCode":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, hash, got)
	assert.Equal(t, []string{hash.Hex()}, ob.appDataPath)
	assert.Equal(t, []string{`{"appCode":"x"}`}, ob.appDataDocs)

	ob.appDataHash = "0x1234"
	_, err = c.PostAppData(context.Background(), chain.Mainnet, hash, `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected appData hash")
}

func TestClient_SendOrder(t *testing.T) {
	ob := newMockOrderbook(t, nil)
	c := newTestClient(ob.server.URL)

	uid, err := c.SendOrder(context.Background(), chain.Mainnet, OrderCreation{SellAmount: "1"})
	require.NoError(t, err)
	assert.Equal(t, OrderUID(testUID), uid)
	assert.Equal(t, "1", ob.orders[0].SellAmount)

	ob.uid = "0xdeadbeef"
	_, err = c.SendOrder(context.Background(), chain.Mainnet, OrderCreation{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 56 bytes")
}

func TestClient_OrderLink(t *testing.T) {
	c := newTestClient("https://api.cow.fi/mainnet/")
	link, err := c.OrderLink(context.Background(), chain.Mainnet, OrderUID(testUID))
	require.NoError(t, err)
	assert.Equal(t, "https://api.cow.fi/mainnet/api/v1/orders/"+testUID, link)

	_, err = newTestClient("").OrderLink(context.Background(), chain.Mainnet, OrderUID(testUID))
	require.Error(t, err)
}

func TestClient_RespectsCancelledContext(t *testing.T) {
	ob := newMockOrderbook(t, sellQuote(testWETH))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(ob.server.URL).GetQuote(ctx, chain.Mainnet, QuoteRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

// ─── Order uid / errors ───────────────────────────────────────────────────────

func TestParseOrderUID(t *testing.T) {
	upper := "0x" + strings.Repeat("AB", 56)
	uid, err := ParseOrderUID(upper)
	require.NoError(t, err)
	assert.Equal(t, OrderUID(testUID), uid)
	assert.Len(t, uid.Bytes(), 56)

	for _, bad := range []string{"", "0x", "ab" + strings.Repeat("ab", 55), "0x" + strings.Repeat("ab", 32), "0x" + strings.Repeat("zz", 56)} {
		_, err := ParseOrderUID(bad)
		assert.Error(t, err, bad)
	}
}

func TestFlowError(t *testing.T) {
	inner := &APIError{Status: 400, ErrorType: "InvalidSignature"}
	fe := &FlowError{Kind: ErrSubmission, Stage: StageOrderAssembled, Err: fmt.Errorf("send order: %w", inner)}

	assert.True(t, errors.Is(fe, ErrSubmission))
	assert.False(t, errors.Is(fe, ErrValidation))
	var apiErr *APIError
	assert.True(t, errors.As(fe, &apiErr))
	assert.False(t, fe.Submitted())
	assert.Equal(t, "submission", KindName(fe))
	assert.NotContains(t, fe.Error(), "order 0x")

	fe.Stage, fe.OrderUID = StageOrderSubmitted, OrderUID(testUID)
	assert.True(t, fe.Submitted())
	assert.Contains(t, fe.Error(), "after order_submitted (order "+testUID+")")

	assert.Equal(t, "internal", KindName(errors.New("boom")))
	assert.Equal(t, "arithmetic", KindName(fmt.Errorf("%w: x", ErrArithmetic)))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "metadata_published", StageMetadataPublished.String())
	assert.Equal(t, "failed", StageFailed.String())
	assert.Equal(t, "unknown", Stage(99).String())
}
