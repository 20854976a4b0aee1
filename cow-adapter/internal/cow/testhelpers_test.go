package cow

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/chain"
	"github.com/Checker-Finance/cow-adapters/internal/rate"
)

var (
	testTrader = common.HexToAddress("0x7a16fF8270133F063aAb6C9977183D9e72835428")
	testUSDC   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	testCOW    = common.HexToAddress("0xDEf1CA1fb7FBcDC777520aa7f396b4E015F497aB")
	testUID    = "0x" + strings.Repeat("ab", 56)
	testWETH   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

// writeJSON encodes v as JSON into w.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic("test helper writeJSON: " + err.Error())
	}
}

func int64Ptr(v int64) *int64 { return &v }

// sellQuote returns the order-book response for the mainnet 1 ETH -> USDC example.
func sellQuote(sellToken common.Address) *QuoteResponse {
	from := testTrader
	return &QuoteResponse{
		Quote: Quote{
			SellToken:        sellToken,
			BuyToken:         testUSDC,
			SellAmount:       "990000000000000000",
			BuyAmount:        "500000000",
			FeeAmount:        "10000000000000000",
			ValidTo:          1735689600,
			AppData:          "0x0000000000000000000000000000000000000000000000000000000000000000",
			Kind:             KindSell,
			SellTokenBalance: BalanceERC20,
			BuyTokenBalance:  BalanceERC20,
			SigningScheme:    SigningSchemePresign,
		},
		From:       &from,
		Expiration: "2025-01-01T00:00:00Z",
		ID:         int64Ptr(42),
		Verified:   true,
	}
}

func sellRequest(sellToken common.Address) ParsedQuoteRequest {
	return ParsedQuoteRequest{
		ChainID: chain.Mainnet,
		QuoteRequest: QuoteRequest{
			SellToken:           sellToken,
			BuyToken:            testUSDC,
			From:                testTrader,
			Kind:                KindSell,
			SellAmountBeforeFee: "1000000000000000000",
			SigningScheme:       SigningSchemePresign,
		},
	}
}

// mockOrderbook is an httptest order book. A nil quote makes /quote return 400.
type mockOrderbook struct {
	server *httptest.Server

	quote       *QuoteResponse
	appDataHash string // overrides the echoed hash when set
	appDataFail bool
	uid         string
	orderFail   bool

	mu          sync.Mutex
	quoteReqs   []QuoteRequest
	appDataPath []string
	appDataDocs []string
	orders      []OrderCreation
}

func newMockOrderbook(t *testing.T, quote *QuoteResponse) *mockOrderbook {
	t.Helper()
	m := &mockOrderbook{quote: quote, uid: testUID}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockOrderbook) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/quote":
		var req QuoteRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		m.quoteReqs = append(m.quoteReqs, req)
		if m.quote == nil {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]string{"errorType": "NoLiquidity", "description": "no route found"})
			return
		}
		writeJSON(w, m.quote)

	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/v1/app_data/"):
		var body struct {
			FullAppData string `json:"fullAppData"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		hash := strings.TrimPrefix(r.URL.Path, "/api/v1/app_data/")
		m.appDataPath = append(m.appDataPath, hash)
		m.appDataDocs = append(m.appDataDocs, body.FullAppData)
		if m.appDataFail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if m.appDataHash != "" {
			hash = m.appDataHash
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, hash)

	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/orders":
		var order OrderCreation
		_ = json.NewDecoder(r.Body).Decode(&order)
		m.orders = append(m.orders, order)
		if m.orderFail {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]string{"errorType": "InsufficientValidTo", "description": "validTo is too soon"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, m.uid)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (m *mockOrderbook) requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quoteReqs) + len(m.appDataPath) + len(m.orders)
}

// staticEndpoints resolves every chain to one base URL.
type staticEndpoints string

func (s staticEndpoints) OrderbookURL(_ context.Context, _ uint64) (string, error) {
	if s == "" {
		return "", errors.New("no orderbook configured")
	}
	return string(s), nil
}

func newTestClient(baseURL string) *Client {
	return NewClient(zap.NewNop(), staticEndpoints(baseURL), rate.NewManager[uint64](rate.Config{}), 0)
}

// fakeAllowances returns a fixed allowance, or err. connectErr fails Connect.
type fakeAllowances struct {
	allowance  *big.Int
	err        error
	connectErr error

	mu       sync.Mutex
	connects int
	calls    int
	ctxErr   error
	token    common.Address
	owner    common.Address
	spend    common.Address
}

func (f *fakeAllowances) Connect(_ context.Context, _ uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connectErr
}

func (f *fakeAllowances) Allowance(ctx context.Context, _ uint64, token, owner, spender common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ctxErr = ctx.Err()
	f.token, f.owner, f.spend = token, owner, spender
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.allowance), nil
}

// recordingObserver keeps every stage it is told about.
type recordingObserver struct {
	mu     sync.Mutex
	stages []Stage
}

func (r *recordingObserver) OnStage(_ uint64, s Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, s)
}

func (r *recordingObserver) seen() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Stage(nil), r.stages...)
}

// fakePublisher records published events by subject.
type fakePublisher struct {
	mu     sync.Mutex
	events map[string][]any
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]any)
	}
	p.events[subject] = append(p.events[subject], payload)
	return p.err
}

func (p *fakePublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[subject])
}

func newTestService(t *testing.T, ob Orderbook, allowances AllowanceReader, events EventPublisher, obs StageObserver) *Service {
	t.Helper()
	svc, err := NewService(zap.NewNop(), DefaultSettings(), ob, allowances, events, obs)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}
