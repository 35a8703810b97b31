package handlers

import (
	"net/http"

	"auction-bidding/internal/domain"
	"auction-bidding/internal/services"
	"auction-bidding/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type BidHandler struct {
	bidService *services.BidService
	log        logger.Logger
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PlaceBidResponse is returned with 200 for both outcomes; a rejected bid is
// not an HTTP error.
type PlaceBidResponse struct {
	AuctionID      int64               `json:"auction_id"`
	Amount         decimal.Decimal     `json:"amount"`
	Accepted       bool                `json:"accepted"`
	Reason         domain.RejectReason `json:"reason,omitempty"`
	MinimumNextBid *decimal.Decimal    `json:"minimum_next_bid,omitempty"`
}

func NewBidHandler(bidService *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		log:        log,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		return err
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	result, err := h.bidService.PlaceBid(c.Request().Context(), auctionID, bidderID(c), req.Amount)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, PlaceBidResponse{
		AuctionID:      auctionID,
		Amount:         req.Amount,
		Accepted:       result.Accepted,
		Reason:         result.Reason,
		MinimumNextBid: result.MinimumNextBid,
	})
}
