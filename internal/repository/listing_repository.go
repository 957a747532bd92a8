package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/giveaway-market/internal/model"
)

// ListingRepo provides data access to the `listings` table.  Timestamps
// are stored and compared in UTC.  After creation, the reservation
// columns (status, reserved_by, reserved_at, expires_at) are written
// only by the lifecycle manager and the cleanup sweep.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo returns a new ListingRepo bound to the provided database.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span several repositories.
func (r *ListingRepo) DB() *sql.DB { return r.db }

const listingCols = `id, title, description, category, quantity, location_name,
	image_url, owner_id, owner_name, latitude, longitude, status,
	reserved_by, reserved_at, expires_at, created_at`

// Create inserts a new available listing.  The caller must have set the
// ID and owner fields; the reservation columns start out null.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings
		 (id, title, description, category, quantity, location_name, image_url,
		  owner_id, owner_name, latitude, longitude, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.ID, l.Title, l.Description, l.Category, l.Quantity, l.LocationName,
		l.ImageURL, l.OwnerID, l.OwnerName, l.Latitude, l.Longitude, model.ListingAvailable)
	return err
}

// GetByID fetches a single listing.  Returns ErrListingNotFound when the
// id does not exist.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+listingCols+` FROM listings WHERE id = ? LIMIT 1`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// List returns all listings, newest first.
func (r *ListingRepo) List(ctx context.Context) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingCols+` FROM listings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// GetByIDs fetches the listings for the given ids, keyed by id.  Missing
// ids are simply absent from the map; conversation assembly tolerates
// listings that the sweep has already purged.
func (r *ListingRepo) GetByIDs(ctx context.Context, ids []string) (map[string]model.Listing, error) {
	out := make(map[string]model.Listing, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + listingCols + ` FROM listings WHERE id IN (?` +
		strings.Repeat(",?", len(ids)-1) + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out[l.ID] = *l
	}
	return out, rows.Err()
}

// ReserveTx flips an available listing to reserved within the provided
// transaction.  The WHERE clause on status is the at-most-one-winner
// guard: when two acceptances race, the second one matches zero rows and
// the caller must roll back with ErrConflict.
func (r *ListingRepo) ReserveTx(ctx context.Context, tx *sql.Tx, listingID, reservedBy string, now, expiresAt time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE listings
		 SET status = ?, reserved_by = ?, reserved_at = ?, expires_at = ?
		 WHERE id = ? AND status = ?`,
		model.ListingReserved, reservedBy, now, expiresAt, listingID, model.ListingAvailable)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpired removes listings whose pickup window has elapsed.  Only
// reserved and sold listings are eligible; available listings never carry
// an expiry and are never matched.  Returns the number of rows deleted.
func (r *ListingRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM listings WHERE status IN (?, ?) AND expires_at IS NOT NULL AND expires_at <= ?`,
		model.ListingReserved, model.ListingSold, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanner lets scanListing work for both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(s scanner) (*model.Listing, error) {
	var (
		l          model.Listing
		reservedBy sql.NullString
		reservedAt sql.NullTime
		expiresAt  sql.NullTime
	)
	err := s.Scan(&l.ID, &l.Title, &l.Description, &l.Category, &l.Quantity,
		&l.LocationName, &l.ImageURL, &l.OwnerID, &l.OwnerName,
		&l.Latitude, &l.Longitude, &l.Status,
		&reservedBy, &reservedAt, &expiresAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if reservedBy.Valid {
		l.ReservedBy = &reservedBy.String
	}
	if reservedAt.Valid {
		t := reservedAt.Time
		l.ReservedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		l.ExpiresAt = &t
	}
	return &l, nil
}
