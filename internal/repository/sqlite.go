package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"fruitbid/internal/biddingerrors"
	model "fruitbid/internal/models"
	"fruitbid/utils"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Supported database/sql driver names
const (
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3, cgo
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverMemory  = "memory"
)

// SQLiteRepo implements AuctionDB on a SQLite file.
// Every operation runs on its own scoped connection which is released on return.
type SQLiteRepo struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the store file and ensures the schema exists.
func OpenSQLite(ctx context.Context, driver, path string) (*SQLiteRepo, error) {
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("repository: open %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: connect %s: %w", path, err)
	}

	// one writer at a time; the busy timeout covers other processes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	repo := &SQLiteRepo{db: db}
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("repository: %q: %w", p, err)
		}
	}
	return nil
}

// Migrate creates the users, lots and bids tables if absent. Safe to call on every start.
func (r *SQLiteRepo) Migrate(ctx context.Context) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("repository: apply schema: %w", err)
		}
		return nil
	})
}

// Close releases the underlying handle
func (r *SQLiteRepo) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// withConn runs fn on a dedicated connection and always returns it to the pool
func (r *SQLiteRepo) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("repository: acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

const insertLotSQL = "INSERT INTO lots (item_name, quantity, base_price, date_added) VALUES (?, ?, ?, ?)"

// AddLot inserts a lot and returns it with its assigned id
func (r *SQLiteRepo) AddLot(ctx context.Context, lot model.Lot) (model.Lot, error) {
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, insertLotSQL, lot.ItemName, lot.Quantity, lot.BasePrice, lot.DateAdded)
		if err != nil {
			return err
		}
		lot.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return model.Lot{}, fmt.Errorf("repository: add lot %q: %w", lot.ItemName, err)
	}
	return lot, nil
}

// GetLot returns a single lot by identifier
func (r *SQLiteRepo) GetLot(ctx context.Context, lotID int64) (model.Lot, error) {
	var lot model.Lot
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx,
			"SELECT id, item_name, quantity, base_price, date_added FROM lots WHERE id = ?", lotID)
		var scanErr error
		lot, scanErr = scanLot(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lot{}, fmt.Errorf("get lot %d: %w", lotID, biddingerrors.ErrLotNotFound)
	}
	if err != nil {
		return model.Lot{}, fmt.Errorf("repository: get lot %d: %w", lotID, err)
	}
	return lot, nil
}

// ListLots returns every lot ordered by id descending (most recently added first)
func (r *SQLiteRepo) ListLots(ctx context.Context) ([]model.Lot, error) {
	lots := make([]model.Lot, 0)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			"SELECT id, item_name, quantity, base_price, date_added FROM lots ORDER BY id DESC")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			lot, err := scanLot(rows)
			if err != nil {
				return err
			}
			lots = append(lots, lot)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("repository: list lots: %w", err)
	}
	return lots, nil
}

// CountLots returns the number of stored lots
func (r *SQLiteRepo) CountLots(ctx context.Context) (int, error) {
	var n int
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM lots").Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("repository: count lots: %w", err)
	}
	return n, nil
}

// SeedIfEmpty inserts lots in one transaction when the lots table is empty
func (r *SQLiteRepo) SeedIfEmpty(ctx context.Context, lots []model.Lot) (int, error) {
	inserted := 0
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck

		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM lots").Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, insertLotSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, l := range lots {
			if _, err := stmt.ExecContext(ctx, l.ItemName, l.Quantity, l.BasePrice, l.DateAdded); err != nil {
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		inserted = len(lots)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("repository: seed lots: %w", err)
	}
	return inserted, nil
}

// PlaceBid inserts a bid unconditionally; the timestamp is stored in UTC
func (r *SQLiteRepo) PlaceBid(ctx context.Context, bid model.Bid) (model.Bid, error) {
	bid.Timestamp = bid.Timestamp.UTC()
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"INSERT INTO bids (user_name, lot_id, bid_amount, timestamp) VALUES (?, ?, ?, ?)",
			bid.UserName, bid.LotID, bid.Amount, bid.Timestamp.Format(model.TimestampLayout))
		if err != nil {
			return err
		}
		bid.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return model.Bid{}, fmt.Errorf("repository: place bid on lot %d: %w", bid.LotID, err)
	}
	return bid, nil
}

// Equal amounts rank by earliest timestamp, then insertion order.
const bidsByLotSQL = `SELECT id, user_name, lot_id, bid_amount, timestamp
	FROM bids WHERE lot_id = ?
	ORDER BY bid_amount DESC, timestamp ASC, id ASC`

// BidsByLot returns all bids for a lot, highest first
func (r *SQLiteRepo) BidsByLot(ctx context.Context, lotID int64) ([]model.Bid, error) {
	bids, err := r.queryBids(ctx, bidsByLotSQL, lotID)
	if err != nil {
		return nil, fmt.Errorf("repository: bids for lot %d: %w", lotID, err)
	}
	return bids, nil
}

// TopBids returns the highest limit bids for a lot
func (r *SQLiteRepo) TopBids(ctx context.Context, lotID int64, limit int) ([]model.Bid, error) {
	if limit <= 0 {
		limit = DefaultTopBids
	}
	bids, err := r.queryBids(ctx, bidsByLotSQL+" LIMIT ?", lotID, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: top bids for lot %d: %w", lotID, err)
	}
	return bids, nil
}

func (r *SQLiteRepo) queryBids(ctx context.Context, query string, args ...any) ([]model.Bid, error) {
	bids := make([]model.Bid, 0)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				b        model.Bid
				userName sql.NullString
				ts       string
			)
			if err := rows.Scan(&b.ID, &userName, &b.LotID, &b.Amount, &ts); err != nil {
				return err
			}
			b.UserName = userName.String
			if b.Timestamp, err = parseTimestamp(ts); err != nil {
				return err
			}
			bids = append(bids, b)
		}
		return rows.Err()
	})
	return bids, err
}

// BidsByUser returns bids whose user_name equals userName exactly, newest first
func (r *SQLiteRepo) BidsByUser(ctx context.Context, userName string) ([]model.UserBid, error) {
	out := make([]model.UserBid, 0)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT bids.id, bids.lot_id, lots.item_name, bids.bid_amount, bids.timestamp
			FROM bids
			JOIN lots ON bids.lot_id = lots.id
			WHERE bids.user_name = ?
			ORDER BY bids.timestamp DESC, bids.id DESC`, userName)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				ub       model.UserBid
				itemName sql.NullString
				ts       string
			)
			if err := rows.Scan(&ub.BidID, &ub.LotID, &itemName, &ub.Amount, &ts); err != nil {
				return err
			}
			ub.ItemName = itemName.String
			if ub.Timestamp, err = parseTimestamp(ts); err != nil {
				return err
			}
			out = append(out, ub)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("repository: bids for user %q: %w", userName, err)
	}
	return out, nil
}

// CreateUser inserts the identity captured for a session
func (r *SQLiteRepo) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	user.Verified = false
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"INSERT INTO users (name, phone, verified) VALUES (?, ?, 0)", user.Name, user.Phone)
		if err != nil {
			return err
		}
		user.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return model.User{}, fmt.Errorf("repository: create user %q: %w", user.Name, err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (model.Lot, error) {
	var (
		lot                         model.Lot
		itemName, quantity, addedOn sql.NullString
		basePrice                   sql.NullFloat64
	)
	if err := row.Scan(&lot.ID, &itemName, &quantity, &basePrice, &addedOn); err != nil {
		return model.Lot{}, err
	}
	lot.ItemName = itemName.String
	lot.Quantity = quantity.String
	lot.BasePrice = basePrice.Float64
	lot.DateAdded = addedOn.String
	return lot, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(model.TimestampLayout, s, time.UTC)
	if err != nil {
		utils.Warn("repository: unparsable bid timestamp", map[string]any{"timestamp": s, "error": err.Error()})
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
