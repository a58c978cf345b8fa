package api

import (
	"errors"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	"CoinCast/internal/usecase"
	xhttp "CoinCast/pkg/http"
	xlogger "CoinCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RelayEchoHandler exposes subscriptions and message delivery.
type RelayEchoHandler struct {
	logger *xlogger.Logger
	relay  *usecase.Relay
}

func NewRelayEchoHandler(logger *xlogger.Logger, relay *usecase.Relay) *RelayEchoHandler {
	return &RelayEchoHandler{logger: logger, relay: relay}
}

func (h *RelayEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/subscriptions/:userId", h.GetSubscription)
	g.POST("/subscriptions", h.Subscribe)
	e.POST("/send_message", h.SendMessage)
	e.GET("/healthz", Health)
}

func (h *RelayEchoHandler) GetSubscription(c echo.Context) error {
	req := &models.SubscriptionPath{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	sub, err := h.relay.Subscription(c.Request().Context(), req.UserID)
	if err != nil {
		return h.storeError(c, err)
	}
	return xhttp.SuccessResponse(c, sub)
}

func (h *RelayEchoHandler) Subscribe(c echo.Context) error {
	req := &models.SubscriptionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	sub, err := h.relay.Subscribe(c.Request().Context(), *req)
	if err != nil {
		return h.storeError(c, err)
	}
	return xhttp.SuccessResponse(c, sub)
}

func (h *RelayEchoHandler) SendMessage(c echo.Context) error {
	req := &models.SendMessageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	queued, err := h.relay.Send(c.Request().Context(), *req)
	switch {
	case err == nil && queued:
		return xhttp.AcceptedResponse(c, xhttp.StatusBody{Status: "queued"})
	case err == nil:
		return xhttp.SuccessResponse(c, xhttp.StatusBody{Status: "sent"})
	case errors.Is(err, usecase.ErrDeliveryFailed):
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("Failed to deliver message").WithError(err))
	default:
		return h.storeError(c, err)
	}
}

func (h *RelayEchoHandler) storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, drepo.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("User not found"))
	case errors.Is(err, drepo.ErrInvalidInput):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("userId and chatId are required"))
	default:
		h.logger.Error("subscription store error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
}
