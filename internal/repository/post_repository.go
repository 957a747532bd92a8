package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/giveaway-market/internal/model"
)

// PostRepo provides data access to the `posts` table (community forum).
type PostRepo struct {
	db *sql.DB
}

// NewPostRepo returns a new PostRepo bound to the provided database.
func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

const postCols = `id, content, category, image, user_id, user_name, user_photo,
	likes, comments, created_at`

// Create inserts a new forum post.
func (r *PostRepo) Create(ctx context.Context, p *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts
		 (id, content, category, image, user_id, user_name, user_photo, likes, comments)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Content, p.Category, p.Image, p.UserID, p.UserName, p.UserPhoto,
		p.Likes, p.Comments)
	return err
}

// List returns all posts, newest first.
func (r *PostRepo) List(ctx context.Context) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postCols+` FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Content, &p.Category, &p.Image, &p.UserID,
			&p.UserName, &p.UserPhoto, &p.Likes, &p.Comments, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches a single post.  Returns ErrPostNotFound when the id
// does not exist.
func (r *PostRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := r.db.QueryRowContext(ctx,
		`SELECT `+postCols+` FROM posts WHERE id = ? LIMIT 1`, id).
		Scan(&p.ID, &p.Content, &p.Category, &p.Image, &p.UserID,
			&p.UserName, &p.UserPhoto, &p.Likes, &p.Comments, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
