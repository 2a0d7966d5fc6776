package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fruitbid/internal/biddingerrors"
	model "fruitbid/internal/models"
)

// DefaultTopBids is the number of bids TopBids returns when no positive limit is given
const DefaultTopBids = 3

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB defines the lot and bid storage interface for the marketplace
type AuctionDB interface {
	AddLot(ctx context.Context, lot model.Lot) (model.Lot, error)
	GetLot(ctx context.Context, lotID int64) (model.Lot, error)
	ListLots(ctx context.Context) ([]model.Lot, error)
	CountLots(ctx context.Context) (int, error)
	SeedIfEmpty(ctx context.Context, lots []model.Lot) (int, error)
	PlaceBid(ctx context.Context, bid model.Bid) (model.Bid, error)
	BidsByLot(ctx context.Context, lotID int64) ([]model.Bid, error)
	TopBids(ctx context.Context, lotID int64, limit int) ([]model.Bid, error)
	BidsByUser(ctx context.Context, userName string) ([]model.UserBid, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
}

// Store is an AuctionDB that owns a closable resource
type Store interface {
	AuctionDB
	Close() error
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB.
// Ordering rules match SQLiteRepo so either can back the service.
type MemoryRepo struct {
	mu     sync.RWMutex
	lots   []model.Lot
	bids   []model.Bid
	users  []model.User
	nextID struct{ lot, bid, user int64 }
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// AddLot stores a lot and assigns the next identifier
func (r *MemoryRepo) AddLot(_ context.Context, lot model.Lot) (model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLotLocked(lot), nil
}

func (r *MemoryRepo) addLotLocked(lot model.Lot) model.Lot {
	r.nextID.lot++
	lot.ID = r.nextID.lot
	r.lots = append(r.lots, lot)
	return lot
}

// GetLot returns a single lot by identifier
func (r *MemoryRepo) GetLot(_ context.Context, lotID int64) (model.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.lots {
		if l.ID == lotID {
			return l, nil
		}
	}
	return model.Lot{}, fmt.Errorf("get lot %d: %w", lotID, biddingerrors.ErrLotNotFound)
}

// ListLots returns every lot, most recently added first
func (r *MemoryRepo) ListLots(_ context.Context) ([]model.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lots := make([]model.Lot, 0, len(r.lots))
	for i := len(r.lots) - 1; i >= 0; i-- {
		lots = append(lots, r.lots[i])
	}
	return lots, nil
}

// CountLots returns the number of stored lots
func (r *MemoryRepo) CountLots(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lots), nil
}

// SeedIfEmpty inserts lots only when none exist yet
func (r *MemoryRepo) SeedIfEmpty(_ context.Context, lots []model.Lot) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.lots) > 0 {
		return 0, nil
	}
	for _, l := range lots {
		r.addLotLocked(l)
	}
	return len(lots), nil
}

// PlaceBid records a bid without any checks against the lot.
// Timestamps are kept in UTC, as the SQLite store does.
func (r *MemoryRepo) PlaceBid(_ context.Context, bid model.Bid) (model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID.bid++
	bid.ID = r.nextID.bid
	bid.Timestamp = bid.Timestamp.UTC()
	r.bids = append(r.bids, bid)
	return bid, nil
}

// BidsByLot returns all bids for a lot, highest first
func (r *MemoryRepo) BidsByLot(_ context.Context, lotID int64) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids := make([]model.Bid, 0)
	for _, b := range r.bids {
		if b.LotID == lotID {
			bids = append(bids, b)
		}
	}
	sortByRank(bids)
	return bids, nil
}

// TopBids returns at most limit bids for a lot, highest first
func (r *MemoryRepo) TopBids(ctx context.Context, lotID int64, limit int) ([]model.Bid, error) {
	if limit <= 0 {
		limit = DefaultTopBids
	}
	bids, err := r.BidsByLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if len(bids) > limit {
		bids = bids[:limit]
	}
	return bids, nil
}

// BidsByUser returns a user's bids joined with lot names, newest first
func (r *MemoryRepo) BidsByUser(_ context.Context, userName string) ([]model.UserBid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[int64]string, len(r.lots))
	for _, l := range r.lots {
		names[l.ID] = l.ItemName
	}

	out := make([]model.UserBid, 0)
	for _, b := range r.bids {
		if b.UserName != userName {
			continue
		}
		// inner join: bids on unknown lots are dropped
		name, ok := names[b.LotID]
		if !ok {
			continue
		}
		out = append(out, model.UserBid{
			BidID:     b.ID,
			LotID:     b.LotID,
			ItemName:  name,
			Amount:    b.Amount,
			Timestamp: b.Timestamp,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].BidID > out[j].BidID
	})
	return out, nil
}

// CreateUser stores a user; Verified is always persisted as false
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID.user++
	user.ID = r.nextID.user
	user.Verified = false
	r.users = append(r.users, user)
	return user, nil
}

// Close is a no-op for the in-memory store
func (r *MemoryRepo) Close() error {
	return nil
}

// sortByRank orders bids by amount descending, earliest timestamp then lowest id on ties
func sortByRank(bids []model.Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		a, b := bids[i], bids[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
}
