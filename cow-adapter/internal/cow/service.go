package cow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/evm"
	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/metrics"
	"github.com/Checker-Finance/cow-adapters/pkg/model"
)

const (
	SubjectOrderPosted       = "evt.cow.order.posted.v1"
	SubjectOrderBundleFailed = "evt.cow.order.bundle_failed.v1"
)

// Settings are the tunables of the sell-order flow.
type Settings struct {
	SlippageBps  int
	AppCode      string
	Referrer     common.Address
	ApprovalMode ApprovalMode
}

// DefaultSettings returns 100 bps slippage, the default app code and referrer,
// and unlimited approvals.
func DefaultSettings() Settings {
	return Settings{
		SlippageBps:  100,
		AppCode:      DefaultAppCode,
		Referrer:     common.HexToAddress(DefaultReferrer),
		ApprovalMode: ApprovalMax,
	}
}

// Validate reports settings that would make every flow fail.
func (s Settings) Validate() error {
	if err := CheckSlippage(s.SlippageBps); err != nil {
		return err
	}
	if s.AppCode == "" {
		return fmt.Errorf("%w: app code is required", ErrConfiguration)
	}
	if s.ApprovalMode != ApprovalMax && s.ApprovalMode != ApprovalExact {
		return fmt.Errorf("%w: unknown approval mode %q", ErrConfiguration, s.ApprovalMode)
	}
	return nil
}

// Orderbook is the subset of the order-book API the flow uses.
type Orderbook interface {
	AppDataRegistrar
	GetQuote(ctx context.Context, chainID uint64, req QuoteRequest) (*QuoteResponse, error)
	SendOrder(ctx context.Context, chainID uint64, order OrderCreation) (OrderUID, error)
	OrderLink(ctx context.Context, chainID uint64, uid OrderUID) (string, error)
}

// EventPublisher delivers lifecycle events. Failures are logged, never fatal.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// MetricsObserver reports stage transitions to Prometheus.
var MetricsObserver StageObserver = StageObserverFunc(func(chainID uint64, stage Stage) {
	metrics.IncFlowStage(chainID, stage.String())
})

// Service builds presigned sell orders.
type Service struct {
	logger    *zap.Logger
	settings  Settings
	orderbook Orderbook
	metadata  *MetadataPublisher
	approvals *ApprovalResolver
	events    EventPublisher
	observer  StageObserver
	now       func() time.Time
}

// NewService wires the flow. events and observer are optional.
func NewService(
	logger *zap.Logger,
	settings Settings,
	orderbook Orderbook,
	allowances AllowanceReader,
	events EventPublisher,
	observer StageObserver,
) (*Service, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		logger:    logger,
		settings:  settings,
		orderbook: orderbook,
		metadata:  NewMetadataPublisher(settings.AppCode, settings.Referrer, orderbook),
		approvals: NewApprovalResolver(allowances, settings.ApprovalMode),
		events:    events,
		observer:  observer,
		now:       time.Now,
	}, nil
}

// flow tracks one invocation through the stages.
type flow struct {
	svc     *Service
	chainID uint64
	owner   common.Address
	stage   Stage
	uid     OrderUID
	logger  *zap.Logger
}

func (f *flow) advance(s Stage) {
	f.stage = s
	f.svc.observer.OnStage(f.chainID, s)
}

func (f *flow) fail(ctx context.Context, def, err error) error {
	fe := &FlowError{
		Kind:     kindOf(err, def),
		Stage:    f.stage,
		OrderUID: f.uid,
		Err:      err,
	}
	f.svc.observer.OnStage(f.chainID, StageFailed)
	metrics.IncFlowFailure(f.chainID, KindName(fe), fe.Submitted())

	if !fe.Submitted() {
		f.logger.Warn("cow.flow_failed",
			zap.String("stage", f.stage.String()),
			zap.String("kind", KindName(fe)),
			zap.Error(err))
		return fe
	}

	f.logger.Error("cow.bundle_failed",
		zap.String("order_uid", f.uid.String()),
		zap.String("stage", f.stage.String()),
		zap.String("kind", KindName(fe)),
		zap.Error(err))
	f.svc.publish(ctx, SubjectOrderBundleFailed, model.OrderBundleFailedEvent{
		EventID:   uuid.NewString(),
		ChainID:   f.chainID,
		OrderUID:  f.uid.String(),
		Owner:     f.owner.Hex(),
		Stage:     f.stage.String(),
		Reason:    err.Error(),
		Timestamp: f.svc.now().UTC(),
	})
	return fe
}

func (s *Service) publish(ctx context.Context, subject string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, payload); err != nil {
		s.logger.Warn("cow.event_publish_failed",
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// BuildSellOrder quotes, posts and presign-bundles a sell order. Once the
// order book accepts the order the flow no longer honours ctx cancellation;
// a failure after that point returns a FlowError carrying the order uid.
func (s *Service) BuildSellOrder(ctx context.Context, in ParsedQuoteRequest) (*OrderFlowResult, error) {
	f := &flow{
		svc:     s,
		chainID: in.ChainID,
		owner:   in.QuoteRequest.From,
		logger:  s.logger.With(zap.Uint64("chain_id", in.ChainID), zap.String("owner", in.QuoteRequest.From.Hex())),
	}
	f.advance(StageReceived)

	if err := ValidateSellRequest(in.QuoteRequest); err != nil {
		return nil, f.fail(ctx, ErrValidation, err)
	}
	requested, _ := new(big.Int).SetString(in.QuoteRequest.SellAmountBeforeFee, 10)

	norm, err := Normalize(in.ChainID, in.QuoteRequest)
	if err != nil {
		return nil, f.fail(ctx, ErrConfiguration, err)
	}
	// The allowance is read after the order is posted; the node must be
	// reachable before anything is sent to the order book.
	if err := s.approvals.Preflight(ctx, in.ChainID); err != nil {
		return nil, f.fail(ctx, ErrConfiguration, err)
	}
	f.advance(StageNormalized)

	f.logger.Info("cow.quote_requested",
		zap.String("sell_token", norm.Request.SellToken.Hex()),
		zap.String("buy_token", norm.Request.BuyToken.Hex()),
		zap.String("sell_amount_before_fee", norm.Request.SellAmountBeforeFee),
		zap.Bool("wrapped_native", norm.WrapTx != nil))

	quote, err := s.orderbook.GetQuote(ctx, in.ChainID, norm.Request)
	if err != nil {
		return nil, f.fail(ctx, ErrSubmission, fmt.Errorf("get quote: %w", err))
	}
	if err := CheckQuote(norm.Request, quote); err != nil {
		return nil, f.fail(ctx, ErrSubmission, err)
	}
	f.advance(StageQuoted)

	adjusted, err := AdjustQuote(quote.Quote, s.settings.SlippageBps, requested)
	if err != nil {
		return nil, f.fail(ctx, ErrArithmetic, err)
	}
	f.advance(StageAdjusted)
	s.logAdjustment(f.logger, quote.Quote, adjusted)

	appDataHash, err := s.metadata.Publish(ctx, in.ChainID)
	if err != nil {
		return nil, f.fail(ctx, ErrSubmission, err)
	}
	f.advance(StageMetadataPublished)

	resp := *quote
	resp.Quote = adjusted
	order, err := AssembleOrder(resp, appDataHash)
	if err != nil {
		return nil, f.fail(ctx, ErrSubmission, err)
	}
	f.advance(StageOrderAssembled)

	uid, err := s.orderbook.SendOrder(ctx, in.ChainID, order)
	if err != nil {
		return nil, f.fail(ctx, ErrSubmission, fmt.Errorf("send order: %w", err))
	}
	f.uid = uid
	f.advance(StageOrderSubmitted)

	// The order now exists; finish the bundle even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	orderURL := norm.Chain.ExplorerOrderURL(uid.String())
	s.announce(ctx, f, order, orderURL)

	sellAmount, _ := new(big.Int).SetString(order.SellAmount, 10)
	approvalTx, err := s.approvals.Resolve(ctx, in.ChainID, order.SellToken, order.From, sellAmount)
	if err != nil {
		return nil, f.fail(ctx, ErrSubmission, err)
	}
	f.advance(StageApprovalResolved)

	sign, kinds, err := s.bundle(in.ChainID, order.From, norm, approvalTx, uid)
	if err != nil {
		return nil, f.fail(ctx, ErrSubmission, err)
	}
	f.advance(StageBundled)

	f.logger.Info("cow.flow_completed",
		zap.String("order_uid", uid.String()),
		zap.Stringers("bundle", kinds))
	f.advance(StageReturned)

	return &OrderFlowResult{
		Transaction: sign,
		Meta:        OrderMeta{OrderURL: orderURL},
		OrderUID:    uid,
	}, nil
}

func (s *Service) bundle(chainID uint64, owner common.Address, norm NormalizedRequest, approval *evm.MetaTransaction, uid OrderUID) (evm.SignRequestData, []TxKind, error) {
	presign, err := PresignTransaction(uid)
	if err != nil {
		return evm.SignRequestData{}, nil, err
	}

	b := NewBundleBuilder(chainID, owner)
	if err := errors.Join(
		b.Add(TxWrap, norm.WrapTx),
		b.Add(TxApproval, approval),
		b.Add(TxPresign, &presign),
	); err != nil {
		return evm.SignRequestData{}, nil, err
	}
	sign, err := b.Seal()
	if err != nil {
		return evm.SignRequestData{}, nil, err
	}
	return sign, b.Kinds(), nil
}

func (s *Service) announce(ctx context.Context, f *flow, order OrderCreation, orderURL string) {
	fields := []zap.Field{
		zap.String("order_uid", f.uid.String()),
		zap.String("order_url", orderURL),
	}
	if link, err := s.orderbook.OrderLink(ctx, f.chainID, f.uid); err == nil {
		fields = append(fields, zap.String("api_link", link))
	}
	f.logger.Info("cow.order_posted", fields...)

	s.publish(ctx, SubjectOrderPosted, model.OrderPostedEvent{
		EventID:    uuid.NewString(),
		ChainID:    f.chainID,
		OrderUID:   f.uid.String(),
		Owner:      order.From.Hex(),
		SellToken:  order.SellToken.Hex(),
		BuyToken:   order.BuyToken.Hex(),
		SellAmount: order.SellAmount,
		BuyAmount:  order.BuyAmount,
		ValidTo:    order.ValidTo,
		OrderURL:   orderURL,
		Timestamp:  s.now().UTC(),
	})
}

func (s *Service) logAdjustment(logger *zap.Logger, quoted, adjusted Quote) {
	before, err1 := decimal.NewFromString(quoted.BuyAmount)
	after, err2 := decimal.NewFromString(adjusted.BuyAmount)
	if err1 != nil || err2 != nil || before.IsZero() {
		return
	}
	logger.Info("cow.quote_adjusted",
		zap.String("sell_amount", adjusted.SellAmount),
		zap.String("fee_amount", quoted.FeeAmount),
		zap.String("buy_amount_quoted", quoted.BuyAmount),
		zap.String("buy_amount_min", adjusted.BuyAmount),
		zap.String("slippage_pct", SlippagePercent(s.settings.SlippageBps).String()),
		zap.String("min_buy_ratio", after.Div(before).StringFixed(6)))
}
