package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"auction-bidding/internal/domain"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP. Rejected bids never reach here.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidBid), errors.Is(err, domain.ErrInvalidAuction):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "bid store unavailable, retry later"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(c echo.Context, err error) error {
	status, msg := statusFor(err)
	return c.JSON(status, ErrorResponse{Error: msg})
}

func auctionIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid auction id")
	}
	return id, nil
}
