package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, auctions *AuctionHandler, bids *BidHandler) {
	api := e.Group("/api/v1")
	api.POST("/auctions", auctions.CreateAuction)
	api.GET("/auctions/:id", auctions.GetAuction)
	api.GET("/auctions/:id/current-bid", auctions.GetCurrentBid)
	api.GET("/auctions/:id/bids", auctions.GetBidHistory)
	api.POST("/auctions/:id/bids", bids.PlaceBid, BidderIdentity)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "bidding-service",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
}
