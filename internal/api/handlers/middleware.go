package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	HeaderBidderID = "X-Bidder-ID"
	bidderIDKey    = "bidder_id"
)

// BidderIdentity trusts the bidder id set by the authenticating gateway in
// front of this service.
func BidderIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(HeaderBidderID)
		if raw == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing bidder identity"})
		}
		bidderID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || bidderID <= 0 {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid bidder identity"})
		}
		c.Set(bidderIDKey, bidderID)
		return next(c)
	}
}

func bidderID(c echo.Context) int64 {
	id, _ := c.Get(bidderIDKey).(int64)
	return id
}
