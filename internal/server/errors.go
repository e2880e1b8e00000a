package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cheliosooo/bankineco-amm-interface/internal/amm"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusFor maps market errors to an HTTP status and a public message
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, amm.ErrInvalidMintPair):
		return http.StatusBadRequest, "invalid mint pair"
	case errors.Is(err, amm.ErrUnsupportedMode):
		return http.StatusBadRequest, "unsupported swap mode"
	case errors.Is(err, amm.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid amount"
	case errors.Is(err, amm.ErrBuild):
		return http.StatusBadRequest, "cannot build swap accounts"
	case errors.Is(err, amm.ErrInsufficientLiquidity):
		return http.StatusConflict, "insufficient liquidity"
	case errors.Is(err, amm.ErrVenuePaused):
		return http.StatusConflict, "venue paused"
	case errors.Is(err, amm.ErrStaleSnapshot):
		return http.StatusServiceUnavailable, "market not ready"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
