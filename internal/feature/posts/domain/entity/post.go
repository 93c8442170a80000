// Package entity defines the domain entities for the posts feature.
package entity

import (
	"time"

	authentity "dynamicpro_backend/internal/feature/auth/domain/entity"
)

// Post is a teacher's publication shown in the feed.
type Post struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	AuthorID   string          `json:"authorId"`
	AuthorName string          `json:"authorName"`
	AuthorRole authentity.Role `json:"authorRole"`
	Images     []string        `json:"images"`
	Likes      int             `json:"likes"`
	LikedBy    []string        `json:"likedBy"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Comment belongs to a post. Comments are never edited.
type Comment struct {
	ID         string          `json:"id"`
	PostID     string          `json:"postId"`
	AuthorID   string          `json:"authorId"`
	AuthorName string          `json:"authorName"`
	AuthorRole authentity.Role `json:"authorRole"`
	Content    string          `json:"content"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Author identifies who wrote a post or comment, as loaded from the Credential Store.
type Author struct {
	ID   string
	Name string
	Role authentity.Role
}
