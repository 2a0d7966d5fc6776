package helpers

import (
	model "fruitbid/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	UserName string  `json:"user_name" binding:"required"`
	LotID    int64   `json:"lot_id" binding:"required,gt=0"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

type AddLotRequest struct {
	ItemName  string   `json:"item_name" binding:"required"`
	Quantity  string   `json:"quantity" binding:"required"`
	BasePrice *float64 `json:"base_price" binding:"required,gte=0"`
}

type BidResponse struct {
	BidID     int64   `json:"bid_id"`
	LotID     int64   `json:"lot_id"`
	UserName  string  `json:"user_name"`
	Amount    float64 `json:"bid_amount"`
	Timestamp string  `json:"timestamp"`
}

type UserBidResponse struct {
	BidID     int64   `json:"bid_id"`
	LotID     int64   `json:"lot_id"`
	ItemName  string  `json:"item_name"`
	Amount    float64 `json:"bid_amount"`
	Timestamp string  `json:"timestamp"`
}

// NewBidResponse formats a bid using the stored timestamp layout
func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.ID,
		LotID:     b.LotID,
		UserName:  b.UserName,
		Amount:    b.Amount,
		Timestamp: b.Timestamp.UTC().Format(model.TimestampLayout),
	}
}

// NewBidResponses never returns nil so the JSON body carries an empty array
func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}

func NewUserBidResponses(bids []model.UserBid) []UserBidResponse {
	out := make([]UserBidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, UserBidResponse{
			BidID:     b.BidID,
			LotID:     b.LotID,
			ItemName:  b.ItemName,
			Amount:    b.Amount,
			Timestamp: b.Timestamp.UTC().Format(model.TimestampLayout),
		})
	}
	return out
}
