package models

import "time"

// Persisted text layouts for the lots and bids tables
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// User represents the identity captured on the Home page
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Verified bool   `json:"verified"`
}

// Lot represents a batch of a single fruit offered for bidding
type Lot struct {
	ID        int64   `json:"id"`
	ItemName  string  `json:"item_name"`
	Quantity  string  `json:"quantity"`
	BasePrice float64 `json:"base_price"`
	DateAdded string  `json:"date_added"`
}

// Bid represents a user's offer on a lot. UserName is matched by exact string.
type Bid struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"user_name"`
	LotID     int64     `json:"lot_id"`
	Amount    float64   `json:"bid_amount"`
	Timestamp time.Time `json:"timestamp"`
}

// UserBid is a bid joined with the name of the lot it was placed on
type UserBid struct {
	BidID     int64     `json:"bid_id"`
	LotID     int64     `json:"lot_id"`
	ItemName  string    `json:"item_name"`
	Amount    float64   `json:"bid_amount"`
	Timestamp time.Time `json:"timestamp"`
}

// LotWithBids pairs a lot with its highest bids for the marketplace view
type LotWithBids struct {
	Lot     Lot   `json:"lot"`
	TopBids []Bid `json:"top_bids"`
}
