package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/cow-adapters/cow-adapter/internal/cow"
)

const requestIDHeader = "X-Request-ID"

// OrderFlowService defines the sell-order flow used by the handler.
type OrderFlowService interface {
	BuildSellOrder(ctx context.Context, in cow.ParsedQuoteRequest) (*cow.OrderFlowResult, error)
}

// CowHandler handles HTTP API requests for CoW order flows.
type CowHandler struct {
	logger  *zap.Logger
	service OrderFlowService
	enabled map[uint64]bool
}

// NewCowHandler creates a new CowHandler. An empty chains list enables every
// chain the service supports.
func NewCowHandler(logger *zap.Logger, service OrderFlowService, chains []uint64) *CowHandler {
	enabled := make(map[uint64]bool, len(chains))
	for _, id := range chains {
		enabled[id] = true
	}
	return &CowHandler{
		logger:  logger,
		service: service,
		enabled: enabled,
	}
}

// SellOrderHandler builds a presigned sell order and returns the transactions to sign.
func (h *CowHandler) SellOrderHandler(c *fiber.Ctx) error {
	requestID := c.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDHeader, requestID)

	var req cow.ParsedQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:     err.Error(),
			Kind:      "validation",
			RequestID: requestID,
		})
	}
	if req.ChainID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:     "chainId is required",
			Kind:      "validation",
			RequestID: requestID,
		})
	}
	if len(h.enabled) > 0 && !h.enabled[req.ChainID] {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error:     "chain is not enabled on this deployment",
			Kind:      "configuration",
			RequestID: requestID,
		})
	}

	logger := h.logger.With(
		zap.String("request_id", requestID),
		zap.Uint64("chain_id", req.ChainID))

	res, err := h.service.BuildSellOrder(c.Context(), req)
	if err != nil {
		resp := ErrorResponse{
			Error:     err.Error(),
			Kind:      cow.KindName(err),
			RequestID: requestID,
		}
		var fe *cow.FlowError
		if errors.As(err, &fe) && fe.Submitted() {
			resp.OrderUID = fe.OrderUID.String()
		}

		logger.Error("cow.sell_order.failed",
			zap.String("kind", resp.Kind),
			zap.String("order_uid", resp.OrderUID),
			zap.Error(err))
		return c.Status(statusFor(err)).JSON(resp)
	}

	logger.Info("cow.sell_order.built",
		zap.String("order_uid", res.OrderUID.String()),
		zap.String("order_url", res.Meta.OrderURL))
	return c.Status(fiber.StatusOK).JSON(res)
}

// statusFor maps a flow error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cow.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, cow.ErrConfiguration):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, cow.ErrSubmission), errors.Is(err, cow.ErrArithmetic):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
