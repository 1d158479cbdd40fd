package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/reaction-ledger/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// httpError maps a core error onto an HTTP error. Store failures are logged
// and never leak their cause to the client.
func httpError(logger *zap.Logger, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, services.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Reaction changed concurrently, try again")
	case errors.Is(err, services.ErrStoreUnavailable):
		logger.Error("reaction store unavailable", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Reaction store unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
