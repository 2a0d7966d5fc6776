package bidding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"fruitbid/internal/biddingerrors"
	"fruitbid/internal/models"
	"fruitbid/internal/repository"
	"fruitbid/utils"
)

// GuestName is used for bids submitted without a session
const GuestName = "Guest"

// BiddingService defines the business logic for the produce marketplace
type BiddingService struct {
	repo         repository.AuctionDB
	now          func() time.Time
	topBidsLimit int
}

// Option customises a BiddingService
type Option func(*BiddingService)

// WithClock overrides the time source used for bid timestamps and lot dates
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) { s.now = now }
}

// WithTopBidsLimit sets how many bids the marketplace shows per lot
func WithTopBidsLimit(n int) Option {
	return func(s *BiddingService) {
		if n > 0 {
			s.topBidsLimit = n
		}
	}
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:         repo,
		now:          func() time.Time { return time.Now().UTC() },
		topBidsLimit: repository.DefaultTopBids,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TopBidsLimit returns the configured per-lot limit for the marketplace
func (s *BiddingService) TopBidsLimit() int {
	return s.topBidsLimit
}

// PlaceBid validates and records a user's bid on a lot
func (s *BiddingService) PlaceBid(ctx context.Context, userName string, lotID int64, amount float64) (models.Bid, error) {
	userName = strings.TrimSpace(userName)
	if err := s.validateBid(ctx, userName, lotID, amount); err != nil {
		return models.Bid{}, err
	}

	bid := models.Bid{
		UserName:  userName,
		LotID:     lotID,
		Amount:    amount,
		Timestamp: s.now().UTC().Truncate(time.Second),
	}

	bid, err := s.repo.PlaceBid(ctx, bid)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid on lot %d by %s: %w", lotID, userName, err)
	}
	return bid, nil
}

// validateBid checks input validity and the base price floor (inclusive)
func (s *BiddingService) validateBid(ctx context.Context, userName string, lotID int64, amount float64) error {
	if userName == "" || lotID <= 0 {
		return fmt.Errorf("service: %w - missing user name or lot id", biddingerrors.ErrInvalidBid)
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("service: %w - non-positive bid amount", biddingerrors.ErrInvalidBid)
	}

	lot, err := s.repo.GetLot(ctx, lotID)
	if err != nil {
		return fmt.Errorf("service: failed to load lot %d: %w", lotID, err)
	}
	if amount < lot.BasePrice {
		return fmt.Errorf("service: %w - base price is %.2f", biddingerrors.ErrBidTooLow, lot.BasePrice)
	}
	return nil
}

// AddLot validates and stores a new lot dated today
func (s *BiddingService) AddLot(ctx context.Context, itemName, quantity string, basePrice float64) (models.Lot, error) {
	itemName = strings.TrimSpace(itemName)
	quantity = strings.TrimSpace(quantity)
	if itemName == "" || quantity == "" {
		return models.Lot{}, fmt.Errorf("service: %w - item name and quantity are required", biddingerrors.ErrInvalidLot)
	}
	if basePrice < 0 || math.IsNaN(basePrice) || math.IsInf(basePrice, 0) {
		return models.Lot{}, fmt.Errorf("service: %w - base price must be a non-negative number", biddingerrors.ErrInvalidLot)
	}

	lot, err := s.repo.AddLot(ctx, models.Lot{
		ItemName:  itemName,
		Quantity:  quantity,
		BasePrice: basePrice,
		DateAdded: s.now().Format(models.DateLayout),
	})
	if err != nil {
		return models.Lot{}, fmt.Errorf("service: failed to add lot %q: %w", itemName, err)
	}
	return lot, nil
}

// ListLots returns all lots, newest first
func (s *BiddingService) ListLots(ctx context.Context) ([]models.Lot, error) {
	lots, err := s.repo.ListLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list lots: %w", err)
	}
	return lots, nil
}

// GetLot returns a single lot
func (s *BiddingService) GetLot(ctx context.Context, lotID int64) (models.Lot, error) {
	if lotID <= 0 {
		return models.Lot{}, fmt.Errorf("service: %w - invalid lot id %d", biddingerrors.ErrLotNotFound, lotID)
	}
	lot, err := s.repo.GetLot(ctx, lotID)
	if err != nil {
		return models.Lot{}, fmt.Errorf("service: failed to get lot %d: %w", lotID, err)
	}
	return lot, nil
}

// BidsForLot returns every bid on a lot, highest first
func (s *BiddingService) BidsForLot(ctx context.Context, lotID int64) ([]models.Bid, error) {
	bids, err := s.repo.BidsByLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for lot %d: %w", lotID, err)
	}
	return bids, nil
}

// TopBids returns the highest limit bids on a lot; non-positive limits use the default
func (s *BiddingService) TopBids(ctx context.Context, lotID int64, limit int) ([]models.Bid, error) {
	if limit <= 0 {
		limit = s.topBidsLimit
	}
	bids, err := s.repo.TopBids(ctx, lotID, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get top bids for lot %d: %w", lotID, err)
	}
	return bids, nil
}

// BidsByUser returns the bids placed under an exact user name, newest first
func (s *BiddingService) BidsByUser(ctx context.Context, userName string) ([]models.UserBid, error) {
	if userName == "" {
		return nil, fmt.Errorf("service: %w - empty user name", biddingerrors.ErrInvalidBid)
	}
	bids, err := s.repo.BidsByUser(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for user %s: %w", userName, err)
	}
	return bids, nil
}

// Marketplace returns every lot, newest first, with its top limit bids
func (s *BiddingService) Marketplace(ctx context.Context, limit int) ([]models.LotWithBids, error) {
	lots, err := s.ListLots(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.LotWithBids, 0, len(lots))
	for _, lot := range lots {
		top, err := s.TopBids(ctx, lot.ID, limit)
		if err != nil {
			return nil, err
		}
		out = append(out, models.LotWithBids{Lot: lot, TopBids: top})
	}
	return out, nil
}

// RegisterUser stores the identity entered on the Home page
func (s *BiddingService) RegisterUser(ctx context.Context, name, phone string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, fmt.Errorf("service: %w", biddingerrors.ErrMissingName)
	}
	user, err := s.repo.CreateUser(ctx, models.User{Name: name, Phone: strings.TrimSpace(phone)})
	if err != nil {
		return models.User{}, fmt.Errorf("service: failed to register user %s: %w", name, err)
	}
	return user, nil
}

// SampleLots returns the demo catalogue dated on the given day
func SampleLots(day time.Time) []models.Lot {
	date := day.Format(models.DateLayout)
	return []models.Lot{
		{ItemName: "Apples", Quantity: "100 kg", BasePrice: 120.0, DateAdded: date},
		{ItemName: "Bananas", Quantity: "200 kg", BasePrice: 60.0, DateAdded: date},
		{ItemName: "Mangoes", Quantity: "150 kg", BasePrice: 180.0, DateAdded: date},
		{ItemName: "Oranges", Quantity: "180 kg", BasePrice: 90.0, DateAdded: date},
	}
}

// SeedIfEmpty inserts the sample catalogue when the store has no lots
func (s *BiddingService) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := s.repo.SeedIfEmpty(ctx, SampleLots(s.now()))
	if err != nil {
		return 0, fmt.Errorf("service: failed to seed sample lots: %w", err)
	}
	if n > 0 {
		utils.Info("sample lots seeded", map[string]any{"count": n})
	}
	return n, nil
}

// Healthy reports whether the store answers a trivial query
func (s *BiddingService) Healthy(ctx context.Context) error {
	if _, err := s.repo.CountLots(ctx); err != nil {
		return fmt.Errorf("service: store unavailable: %w", err)
	}
	return nil
}
