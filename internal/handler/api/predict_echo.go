package api

import (
	"errors"
	"net/http"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/usecase"
	xhttp "CoinCast/pkg/http"
	xlogger "CoinCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictEchoHandler serves GET /predict.
type PredictEchoHandler struct {
	logger    *xlogger.Logger
	predictor *usecase.Predictor
}

func NewPredictEchoHandler(logger *xlogger.Logger, predictor *usecase.Predictor) *PredictEchoHandler {
	return &PredictEchoHandler{logger: logger, predictor: predictor}
}

func (h *PredictEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/predict", h.Predict)
	e.GET("/favicon.ico", Favicon)
	e.GET("/healthz", Health)
}

func (h *PredictEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}

	in, err := h.predictor.ParseInput(*req)
	if err != nil {
		return xhttp.AppErrorResponse(c, predictionAppError(err))
	}

	pred, err := h.predictor.Predict(c.Request().Context(), in)
	if err != nil {
		return xhttp.AppErrorResponse(c, predictionAppError(err))
	}
	return xhttp.SuccessResponse(c, models.PredictResponse{Prediction: pred.Value})
}

// predictionAppError maps the error taxonomy onto HTTP. Unexpected errors
// never expose their cause.
func predictionAppError(err error) *xhttp.AppError {
	var msg string
	var pe *models.PredictionError
	if errors.As(err, &pe) {
		msg = pe.Message
	}
	switch models.KindOf(err) {
	case models.KindValidation:
		return xhttp.BadRequestError(msg).WithError(err)
	case models.KindUpstream:
		return xhttp.UpstreamError(msg).WithError(err)
	default:
		return xhttp.InternalError("Unexpected error").WithError(err)
	}
}

// Favicon answers browser favicon requests with an empty body.
func Favicon(c echo.Context) error {
	return xhttp.NoContentResponse(c)
}

func Health(c echo.Context) error {
	return xhttp.JSONResponse(c, http.StatusOK, xhttp.StatusBody{Status: "ok"})
}
