package domain

import "time"

type Post struct {
	ID          string    `json:"_id"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName,omitempty"`
	AuthorImage string    `json:"authorImage,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tag         string    `json:"tag"`
	Upvotes     []string  `json:"upvotes"`
	Downvotes   []string  `json:"downvotes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Score is upvotes minus downvotes.
func (p *Post) Score() int {
	return len(p.Upvotes) - len(p.Downvotes)
}

type PostDraft struct {
	AuthorID    string `json:"authorId"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
	AuthorImage string `json:"authorImage,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Tag         string `json:"tag"`
}

type Comment struct {
	ID          string    `json:"_id"`
	PostID      string    `json:"postId"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName,omitempty"`
	AuthorImage string    `json:"authorImage,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CommentDraft struct {
	PostID      string `json:"postId"`
	AuthorID    string `json:"authorId"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
	AuthorImage string `json:"authorImage,omitempty"`
	Content     string `json:"content"`
}

type Announcement struct {
	ID          string    `json:"_id"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	AuthorEmail string    `json:"authorEmail,omitempty"`
	AuthorImage string    `json:"authorImage,omitempty"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Audience    string    `json:"audience"`
	Pinned      bool      `json:"pinned"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Tag struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Page is a single page of a paginated listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PageRequest falls back to page 1 and the given default limit.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) Normalize(defaultLimit int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	return p
}
