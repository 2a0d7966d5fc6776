package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	model "fruitbid/internal/models"
	"fruitbid/services/bidding/helpers"
	"fruitbid/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_service.go -package=handler

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, userName string, lotID int64, amount float64) (model.Bid, error)
	AddLot(ctx context.Context, itemName, quantity string, basePrice float64) (model.Lot, error)
	ListLots(ctx context.Context) ([]model.Lot, error)
	GetLot(ctx context.Context, lotID int64) (model.Lot, error)
	BidsForLot(ctx context.Context, lotID int64) ([]model.Bid, error)
	TopBids(ctx context.Context, lotID int64, limit int) ([]model.Bid, error)
	BidsByUser(ctx context.Context, userName string) ([]model.UserBid, error)
	Marketplace(ctx context.Context, limit int) ([]model.LotWithBids, error)
	RegisterUser(ctx context.Context, name, phone string) (model.User, error)
	Healthy(ctx context.Context) error
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// respondServiceError maps err to a status and writes the error envelope
func respondServiceError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := helpers.MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// PlaceBidHandler handles POST /api/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), req.UserName, req.LotID, req.Amount)
	if err != nil {
		respondServiceError(c, "PlaceBidHandler", err, map[string]any{
			"lot_id":    req.LotID,
			"user_name": req.UserName,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":    bid.ID,
		"lot_id":    bid.LotID,
		"user_name": bid.UserName,
		"amount":    bid.Amount,
	})
}

// AddLotHandler handles POST /api/lots
func (h *BiddingHandler) AddLotHandler(c *gin.Context) {
	var req helpers.AddLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AddLotHandler", err)
		return
	}

	lot, err := h.service.AddLot(c.Request.Context(), req.ItemName, req.Quantity, *req.BasePrice)
	if err != nil {
		respondServiceError(c, "AddLotHandler", err, map[string]any{"item_name": req.ItemName})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, lot, "lot added successfully")
	helpers.LogSuccess("AddLotHandler", "lot added successfully", map[string]any{
		"lot_id":    lot.ID,
		"item_name": lot.ItemName,
	})
}

// ListLotsHandler handles GET /api/lots
func (h *BiddingHandler) ListLotsHandler(c *gin.Context) {
	lots, err := h.service.ListLots(c.Request.Context())
	if err != nil {
		respondServiceError(c, "ListLotsHandler", err, nil)
		return
	}
	if lots == nil {
		lots = []model.Lot{}
	}

	utils.JSONResponse(c, http.StatusOK, lots, "lots retrieved successfully")
	helpers.LogSuccess("ListLotsHandler", "lots retrieved successfully", map[string]any{"count": len(lots)})
}

// GetLotHandler handles GET /api/lots/:lot_id
func (h *BiddingHandler) GetLotHandler(c *gin.Context) {
	lotID, err := helpers.ParseLotID(c, "lot_id")
	if err != nil {
		respondServiceError(c, "GetLotHandler", err, nil)
		return
	}

	lot, err := h.service.GetLot(c.Request.Context(), lotID)
	if err != nil {
		respondServiceError(c, "GetLotHandler", err, map[string]any{"lot_id": lotID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, lot, "lot retrieved successfully")
}

// GetBidsByLotHandler handles GET /api/lots/:lot_id/bids
func (h *BiddingHandler) GetBidsByLotHandler(c *gin.Context) {
	lotID, err := helpers.ParseLotID(c, "lot_id")
	if err != nil {
		respondServiceError(c, "GetBidsByLotHandler", err, nil)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.service.GetLot(ctx, lotID); err != nil {
		respondServiceError(c, "GetBidsByLotHandler", err, map[string]any{"lot_id": lotID})
		return
	}

	bids, err := h.service.BidsForLot(ctx, lotID)
	if err != nil {
		respondServiceError(c, "GetBidsByLotHandler", err, map[string]any{"lot_id": lotID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByLotHandler", "bids retrieved successfully", map[string]any{
		"lot_id": lotID,
		"count":  len(bids),
	})
}

// GetTopBidsHandler handles GET /api/lots/:lot_id/top-bids?limit=N
func (h *BiddingHandler) GetTopBidsHandler(c *gin.Context) {
	lotID, err := helpers.ParseLotID(c, "lot_id")
	if err != nil {
		respondServiceError(c, "GetTopBidsHandler", err, nil)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw), "limit must be a positive integer")
			utils.Warn("GetTopBidsHandler: invalid limit", map[string]any{"limit": raw})
			return
		}
	}

	ctx := c.Request.Context()
	if _, err := h.service.GetLot(ctx, lotID); err != nil {
		respondServiceError(c, "GetTopBidsHandler", err, map[string]any{"lot_id": lotID})
		return
	}

	bids, err := h.service.TopBids(ctx, lotID, limit)
	if err != nil {
		respondServiceError(c, "GetTopBidsHandler", err, map[string]any{"lot_id": lotID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "top bids retrieved successfully")
}

// GetBidsByUserHandler handles GET /api/users/:user_name/bids
func (h *BiddingHandler) GetBidsByUserHandler(c *gin.Context) {
	userName := c.Param("user_name")
	bids, err := h.service.BidsByUser(c.Request.Context(), userName)
	if err != nil {
		respondServiceError(c, "GetBidsByUserHandler", err, map[string]any{"user_name": userName})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewUserBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByUserHandler", "bids retrieved successfully", map[string]any{
		"user_name": userName,
		"count":     len(bids),
	})
}

// HealthHandler handles GET /health
func (h *BiddingHandler) HealthHandler(c *gin.Context) {
	if err := h.service.Healthy(c.Request.Context()); err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, err, "store unavailable")
		utils.Error("HealthHandler: store check failed", map[string]any{"error": err.Error()})
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"store": "ok"}, "healthy")
}
