package model

import "time"

// Post is a community forum post, as stored in the `posts` table.
//
// Fields:
//  ID        – ULID primary key.
//  Content   – post body.
//  Category  – forum category slug.
//  Image     – optional image URL.
//  UserID    – author.
//  UserName  – denormalized display name of the author.
//  UserPhoto – avatar URL of the author.
//  Likes     – like counter.
//  Comments  – comment counter.
//  CreatedAt – creation timestamp.
type Post struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Image     string    `json:"image"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserPhoto string    `json:"userPhoto"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}
