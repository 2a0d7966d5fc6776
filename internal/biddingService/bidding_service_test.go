package bidding

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"fruitbid/internal/biddingerrors"
	model "fruitbid/internal/models"
	"fruitbid/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 10, 8, 14, 30, 15, 500, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newMockedService(t *testing.T) (*BiddingService, *repository.MockAuctionDB) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockRepo := repository.NewMockAuctionDB(ctrl)
	return NewBiddingService(mockRepo, WithClock(fixedClock)), mockRepo
}

// Tests PlaceBid
func TestBiddingService_PlaceBid(t *testing.T) {
	t.Parallel()

	apples := model.Lot{ID: 1, ItemName: "Apples", Quantity: "100 kg", BasePrice: 120, DateAdded: "2025-10-08"}

	// Table-driven test cases
	tests := []struct {
		name          string
		userName      string
		lotID         int64
		amount        float64
		mockSetup     func(m *repository.MockAuctionDB)
		expectError   bool
		expectedError error
	}{
		{
			name:     "valid_bid_above_base",
			userName: "Alice",
			lotID:    1,
			amount:   130,
			mockSetup: func(m *repository.MockAuctionDB) {
				m.EXPECT().GetLot(gomock.Any(), int64(1)).Return(apples, nil)
				m.EXPECT().PlaceBid(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, b model.Bid) (model.Bid, error) {
						b.ID = 7
						return b, nil
					})
			},
		},
		{
			name:     "bid_equal_to_base_price_accepted",
			userName: "Alice",
			lotID:    1,
			amount:   120,
			mockSetup: func(m *repository.MockAuctionDB) {
				m.EXPECT().GetLot(gomock.Any(), int64(1)).Return(apples, nil)
				m.EXPECT().PlaceBid(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, b model.Bid) (model.Bid, error) {
						b.ID = 8
						return b, nil
					})
			},
		},
		{
			name:     "name_is_trimmed",
			userName: "  Alice  ",
			lotID:    1,
			amount:   125,
			mockSetup: func(m *repository.MockAuctionDB) {
				m.EXPECT().GetLot(gomock.Any(), int64(1)).Return(apples, nil)
				m.EXPECT().PlaceBid(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, b model.Bid) (model.Bid, error) {
						b.ID = 9
						return b, nil
					})
			},
		},
		{
			name:          "bid_below_base_price",
			userName:      "Bob",
			lotID:         1,
			amount:        119.99,
			mockSetup:     func(m *repository.MockAuctionDB) { m.EXPECT().GetLot(gomock.Any(), int64(1)).Return(apples, nil) },
			expectError:   true,
			expectedError: biddingerrors.ErrBidTooLow,
		},
		{
			name:          "empty_user_name",
			userName:      "   ",
			lotID:         1,
			amount:        130,
			mockSetup:     func(m *repository.MockAuctionDB) {},
			expectError:   true,
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:          "zero_lot_id",
			userName:      "Alice",
			lotID:         0,
			amount:        130,
			mockSetup:     func(m *repository.MockAuctionDB) {},
			expectError:   true,
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:          "zero_amount",
			userName:      "Alice",
			lotID:         1,
			amount:        0,
			mockSetup:     func(m *repository.MockAuctionDB) {},
			expectError:   true,
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:          "nan_amount",
			userName:      "Alice",
			lotID:         1,
			amount:        math.NaN(),
			mockSetup:     func(m *repository.MockAuctionDB) {},
			expectError:   true,
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:     "lot_not_found",
			userName: "Alice",
			lotID:    42,
			amount:   130,
			mockSetup: func(m *repository.MockAuctionDB) {
				m.EXPECT().GetLot(gomock.Any(), int64(42)).Return(model.Lot{}, biddingerrors.ErrLotNotFound)
			},
			expectError:   true,
			expectedError: biddingerrors.ErrLotNotFound,
		},
		{
			name:     "repo_fails",
			userName: "Alice",
			lotID:    1,
			amount:   130,
			mockSetup: func(m *repository.MockAuctionDB) {
				m.EXPECT().GetLot(gomock.Any(), int64(1)).Return(apples, nil)
				m.EXPECT().PlaceBid(gomock.Any(), gomock.Any()).Return(model.Bid{}, errors.New("disk I/O error"))
			},
			expectError:   true,
			expectedError: nil, // Service wraps repo error
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, mockRepo := newMockedService(t)
			tc.mockSetup(mockRepo)

			bid, err := service.PlaceBid(context.Background(), tc.userName, tc.lotID, tc.amount)

			if tc.expectError {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				}
				return
			}

			require.NoError(t, err)
			require.NotZero(t, bid.ID)
			require.Equal(t, "Alice", bid.UserName)
			require.Equal(t, tc.lotID, bid.LotID)
			require.Equal(t, tc.amount, bid.Amount)
			require.Equal(t, fixedNow.Truncate(time.Second), bid.Timestamp)
		})
	}
}

// Tests AddLot
func TestBiddingService_AddLot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		itemName      string
		quantity      string
		basePrice     float64
		mockSetup     func(m *repository.MockAuctionDB)
		expectedError error
		wantErr       bool
	}{
		{
			name:      "valid_lot",
			itemName:  " Apples ",
			quantity:  "100 kg",
			basePrice: 120,
			mockSetup: func(m *repository.MockAuctionDB) {
				m.EXPECT().AddLot(gomock.Any(), model.Lot{
					ItemName: "Apples", Quantity: "100 kg", BasePrice: 120, DateAdded: "2025-10-08",
				}).Return(model.Lot{ID: 5, ItemName: "Apples", Quantity: "100 kg", BasePrice: 120, DateAdded: "2025-10-08"}, nil)
			},
		},
		{
			name:      "zero_base_price_allowed",
			itemName:  "Lemons",
			quantity:  "1 box",
			basePrice: 0,
			mockSetup: func(m *repository.MockAuctionDB) {
				m.EXPECT().AddLot(gomock.Any(), gomock.Any()).Return(model.Lot{ID: 6, ItemName: "Lemons"}, nil)
			},
		},
		{name: "missing_name", itemName: "", quantity: "10 kg", basePrice: 10, mockSetup: func(m *repository.MockAuctionDB) {}, wantErr: true, expectedError: biddingerrors.ErrInvalidLot},
		{name: "missing_quantity", itemName: "Kiwi", quantity: "  ", basePrice: 10, mockSetup: func(m *repository.MockAuctionDB) {}, wantErr: true, expectedError: biddingerrors.ErrInvalidLot},
		{name: "negative_price", itemName: "Kiwi", quantity: "10 kg", basePrice: -1, mockSetup: func(m *repository.MockAuctionDB) {}, wantErr: true, expectedError: biddingerrors.ErrInvalidLot},
		{name: "infinite_price", itemName: "Kiwi", quantity: "10 kg", basePrice: math.Inf(1), mockSetup: func(m *repository.MockAuctionDB) {}, wantErr: true, expectedError: biddingerrors.ErrInvalidLot},
		{
			name:      "repo_error",
			itemName:  "Kiwi",
			quantity:  "10 kg",
			basePrice: 10,
			mockSetup: func(m *repository.MockAuctionDB) {
				m.EXPECT().AddLot(gomock.Any(), gomock.Any()).Return(model.Lot{}, errors.New("readonly database"))
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, mockRepo := newMockedService(t)
			tc.mockSetup(mockRepo)

			lot, err := service.AddLot(context.Background(), tc.itemName, tc.quantity, tc.basePrice)
			if tc.wantErr {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.ErrorIs(t, err, tc.expectedError)
				}
				return
			}
			require.NoError(t, err)
			require.NotZero(t, lot.ID)
		})
	}
}

// Tests TopBids limit defaulting
func TestBiddingService_TopBids(t *testing.T) {
	t.Parallel()

	t.Run("default_limit", func(t *testing.T) {
		t.Parallel()
		service, mockRepo := newMockedService(t)
		mockRepo.EXPECT().TopBids(gomock.Any(), int64(3), 3).Return([]model.Bid{}, nil)

		bids, err := service.TopBids(context.Background(), 3, 0)
		require.NoError(t, err)
		require.Empty(t, bids)
	})

	t.Run("configured_limit", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		mockRepo := repository.NewMockAuctionDB(ctrl)
		service := NewBiddingService(mockRepo, WithTopBidsLimit(5))
		mockRepo.EXPECT().TopBids(gomock.Any(), int64(3), 5).Return([]model.Bid{}, nil)

		_, err := service.TopBids(context.Background(), 3, -2)
		require.NoError(t, err)
		require.Equal(t, 5, service.TopBidsLimit())
	})

	t.Run("repo_error", func(t *testing.T) {
		t.Parallel()
		service, mockRepo := newMockedService(t)
		mockRepo.EXPECT().TopBids(gomock.Any(), int64(3), 2).Return(nil, errors.New("db failure"))

		_, err := service.TopBids(context.Background(), 3, 2)
		require.Error(t, err)
	})
}

// Tests BidsByUser
func TestBiddingService_BidsByUser(t *testing.T) {
	t.Parallel()

	t.Run("empty_user", func(t *testing.T) {
		t.Parallel()
		service, _ := newMockedService(t)
		_, err := service.BidsByUser(context.Background(), "")
		require.ErrorIs(t, err, biddingerrors.ErrInvalidBid)
	})

	t.Run("passes_name_verbatim", func(t *testing.T) {
		t.Parallel()
		service, mockRepo := newMockedService(t)
		want := []model.UserBid{{BidID: 1, LotID: 2, ItemName: "Apples", Amount: 130, Timestamp: fixedNow}}
		mockRepo.EXPECT().BidsByUser(gomock.Any(), "Alice ").Return(want, nil)

		got, err := service.BidsByUser(context.Background(), "Alice ")
		require.NoError(t, err)
		require.Equal(t, want, got)
	})
}

// Tests RegisterUser
func TestBiddingService_RegisterUser(t *testing.T) {
	t.Parallel()

	t.Run("missing_name", func(t *testing.T) {
		t.Parallel()
		service, _ := newMockedService(t)
		_, err := service.RegisterUser(context.Background(), "  ", "123")
		require.ErrorIs(t, err, biddingerrors.ErrMissingName)
	})

	t.Run("trims_fields", func(t *testing.T) {
		t.Parallel()
		service, mockRepo := newMockedService(t)
		mockRepo.EXPECT().CreateUser(gomock.Any(), model.User{Name: "Alice", Phone: "98765"}).
			Return(model.User{ID: 1, Name: "Alice", Phone: "98765"}, nil)

		u, err := service.RegisterUser(context.Background(), " Alice ", " 98765 ")
		require.NoError(t, err)
		require.Equal(t, int64(1), u.ID)
	})
}

// Tests SeedIfEmpty
func TestBiddingService_SeedIfEmpty(t *testing.T) {
	t.Parallel()

	service, mockRepo := newMockedService(t)
	mockRepo.EXPECT().SeedIfEmpty(gomock.Any(), SampleLots(fixedNow)).Return(4, nil)

	n, err := service.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, n)

	for _, l := range SampleLots(fixedNow) {
		require.Equal(t, "2025-10-08", l.DateAdded)
		require.Greater(t, l.BasePrice, 0.0)
	}
}

// Tests Marketplace and the end-to-end flow over the in-memory store
func TestBiddingService_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := fixedNow
	clock := func() time.Time { return now }
	service := NewBiddingService(repository.NewMemoryRepo(), WithClock(clock))

	lot, err := service.AddLot(ctx, "Apples", "100 kg", 120.0)
	require.NoError(t, err)

	lots, err := service.ListLots(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.Equal(t, 120.0, lots[0].BasePrice)

	alice, err := service.PlaceBid(ctx, "Alice", lot.ID, 130.0)
	require.NoError(t, err)

	top, err := service.TopBids(ctx, lot.ID, 3)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, "Alice", top[0].UserName)
	require.Equal(t, 130.0, top[0].Amount)
	require.Equal(t, alice.Timestamp, top[0].Timestamp)

	now = now.Add(time.Minute)
	bob, err := service.PlaceBid(ctx, "Bob", lot.ID, 150.0)
	require.NoError(t, err)

	top, err = service.TopBids(ctx, lot.ID, 3)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, []string{"Bob", "Alice"}, []string{top[0].UserName, top[1].UserName})
	require.Equal(t, bob.Timestamp, top[0].Timestamp)

	// seeding never touches a populated store
	n, err := service.SeedIfEmpty(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	market, err := service.Marketplace(ctx, 0)
	require.NoError(t, err)
	require.Len(t, market, 1)
	require.Equal(t, lot.ID, market[0].Lot.ID)
	require.Len(t, market[0].TopBids, 2)

	require.NoError(t, service.Healthy(ctx))
}

// A clock outside UTC must not shift bid times in any store
func TestBiddingService_NonUTCClock(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*60*60+30*60)
	clock := func() time.Time { return time.Date(2025, 10, 8, 10, 0, 0, 0, ist) }
	want := time.Date(2025, 10, 8, 4, 30, 0, 0, time.UTC)

	for _, driver := range []string{repository.DriverMemory, repository.DriverMattn, repository.DriverModernc} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			store, err := repository.Open(ctx, driver, filepath.Join(t.TempDir(), "fruitbid.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			service := NewBiddingService(store, WithClock(clock))
			lot, err := service.AddLot(ctx, "Apples", "100 kg", 120.0)
			require.NoError(t, err)

			placed, err := service.PlaceBid(ctx, "Alice", lot.ID, 130.0)
			require.NoError(t, err)
			require.Equal(t, want, placed.Timestamp)

			top, err := service.TopBids(ctx, lot.ID, 3)
			require.NoError(t, err)
			require.Len(t, top, 1)
			require.Equal(t, placed.Timestamp, top[0].Timestamp)
		})
	}
}
