package handlers

import (
	"net/http"
	"strconv"
	"time"

	"auction-bidding/internal/domain"
	"auction-bidding/internal/services"
	"auction-bidding/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AuctionHandler struct {
	auctionService    *services.AuctionService
	currentBidService *services.CurrentBidService
	log               logger.Logger
}

type CreateAuctionRequest struct {
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	BasePrice decimal.Decimal  `json:"base_price"`
	StepPrice *decimal.Decimal `json:"step_price,omitempty"`
}

type AuctionResponse struct {
	AuctionID       int64            `json:"auction_id"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         time.Time        `json:"end_time"`
	BasePrice       decimal.Decimal  `json:"base_price"`
	StepPrice       decimal.Decimal  `json:"step_price"`
	CurrentBid      *decimal.Decimal `json:"current_bid"`
	HighestBidderID *int64           `json:"highest_bidder_id"`
	MinimumNextBid  decimal.Decimal  `json:"minimum_next_bid"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type BidHistoryResponse struct {
	AuctionID int64                `json:"auction_id"`
	Bids      []*domain.BidAttempt `json:"bids"`
}

func NewAuctionHandler(auctionService *services.AuctionService, currentBidService *services.CurrentBidService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctionService:    auctionService,
		currentBidService: currentBidService,
		log:               log,
	}
}

func newAuctionResponse(a *domain.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:       a.ID,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		BasePrice:       a.BasePrice,
		StepPrice:       a.Step,
		CurrentBid:      a.CurrentBid,
		HighestBidderID: a.HighestBidderID,
		MinimumNextBid:  a.MinimumNextBid(),
		UpdatedAt:       a.UpdatedAt,
	}
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	auction, err := h.auctionService.CreateAuction(c.Request().Context(), services.CreateAuctionInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		BasePrice: req.BasePrice,
		Step:      req.StepPrice,
	})
	if err != nil {
		h.log.Error("Failed to create auction", "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, newAuctionResponse(auction))
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		return err
	}

	auction, err := h.auctionService.GetAuction(c.Request().Context(), auctionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newAuctionResponse(auction))
}

func (h *AuctionHandler) GetCurrentBid(c echo.Context) error {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		return err
	}

	current, err := h.currentBidService.GetCurrentBid(c.Request().Context(), auctionID)
	if err != nil {
		h.log.Error("Failed to read current bid", "auction_id", auctionID, "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, current)
}

func (h *AuctionHandler) GetBidHistory(c echo.Context) error {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
	}

	history, err := h.auctionService.GetBidHistory(c.Request().Context(), auctionID, limit)
	if err != nil {
		h.log.Error("Failed to read bid history", "auction_id", auctionID, "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, BidHistoryResponse{AuctionID: auctionID, Bids: history})
}
