package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/giveaway-market/internal/model"
)

// RequestRepo provides data access to the `requests` table.  The
// acceptance path runs inside a transaction shared with ListingRepo, so
// the mutating methods used there take an explicit *sql.Tx.
type RequestRepo struct {
	db *sql.DB
}

// NewRequestRepo returns a new RequestRepo bound to the provided database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

const requestCols = `id, listing_id, requester_id, requester_name, owner_id,
	owner_name, message, pickup_time, status, created_at, accepted_at, expires_at`

// Create inserts a new pending request.
func (r *RequestRepo) Create(ctx context.Context, req *model.Request) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO requests
		 (id, listing_id, requester_id, requester_name, owner_id, owner_name,
		  message, pickup_time, status)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		req.ID, req.ListingID, req.RequesterID, req.RequesterName,
		req.OwnerID, req.OwnerName, req.Message, req.PickupTime, model.RequestPending)
	return err
}

// GetByID fetches a single request.  Returns ErrRequestNotFound when the
// id does not exist.
func (r *RequestRepo) GetByID(ctx context.Context, id string) (*model.Request, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestCols+` FROM requests WHERE id = ? LIMIT 1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// PendingExists reports whether the requester already has a pending
// request on the listing.  Backed by the (listing_id, requester_id,
// status) index.
func (r *RequestRepo) PendingExists(ctx context.Context, listingID, requesterID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM requests WHERE listing_id = ? AND requester_id = ? AND status = ? LIMIT 1`,
		listingID, requesterID, model.RequestPending).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByOwner returns all requests received by the given owner, newest first.
func (r *RequestRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Request, error) {
	return r.list(ctx, `owner_id`, ownerID)
}

// ListByRequester returns all requests the given user has sent, newest first.
func (r *RequestRepo) ListByRequester(ctx context.Context, requesterID string) ([]model.Request, error) {
	return r.list(ctx, `requester_id`, requesterID)
}

func (r *RequestRepo) list(ctx context.Context, col, id string) ([]model.Request, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestCols+` FROM requests WHERE `+col+` = ? ORDER BY created_at DESC, id DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

// MarkRejected sets a single request to rejected.
func (r *RequestRepo) MarkRejected(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE requests SET status = ? WHERE id = ?`, model.RequestRejected, id)
	return err
}

// MarkAcceptedTx sets the request to accepted with its pickup window
// inside the acceptance transaction.
func (r *RequestRepo) MarkAcceptedTx(ctx context.Context, tx *sql.Tx, id string, acceptedAt, expiresAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, accepted_at = ?, expires_at = ? WHERE id = ?`,
		model.RequestAccepted, acceptedAt, expiresAt, id)
	return err
}

// RejectOtherPendingTx rejects every pending request on the listing
// except the accepted one, inside the acceptance transaction.  Doing it
// here rather than as a follow-up write is what closes the window where
// two requests could both look accepted.
func (r *RequestRepo) RejectOtherPendingTx(ctx context.Context, tx *sql.Tx, listingID, exceptID string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ? WHERE listing_id = ? AND id <> ? AND status = ?`,
		model.RequestRejected, listingID, exceptID, model.RequestPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes every request whose pickup window has elapsed,
// regardless of status.  Returns the number of rows deleted.
func (r *RequestRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM requests WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanRequest(s scanner) (*model.Request, error) {
	var (
		req        model.Request
		acceptedAt sql.NullTime
		expiresAt  sql.NullTime
	)
	err := s.Scan(&req.ID, &req.ListingID, &req.RequesterID, &req.RequesterName,
		&req.OwnerID, &req.OwnerName, &req.Message, &req.PickupTime,
		&req.Status, &req.CreatedAt, &acceptedAt, &expiresAt)
	if err != nil {
		return nil, err
	}
	if acceptedAt.Valid {
		t := acceptedAt.Time
		req.AcceptedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		req.ExpiresAt = &t
	}
	return &req, nil
}
