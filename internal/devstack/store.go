package devstack

import (
	"sort"
	"strings"
	"sync"
	"time"

	"forumclient/internal/core/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

type account struct {
	identityID string
	name       string
	email      string
	avatar     string
	password   []byte
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func (a *account) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.password, []byte(password)) == nil
}

// state is the in-memory backing store shared by the identity provider and
// the forum API.
type state struct {
	mu sync.RWMutex

	accounts      map[string]*account // by email
	revoked       map[string]struct{} // refresh tokens
	users         map[string]*domain.UserRecord
	posts         map[string]*domain.Post
	comments      map[string]*domain.Comment
	reports       map[string]*domain.Report
	announcements []domain.Announcement
	tags          []domain.Tag

	now func() time.Time
}

func newState() *state {
	return &state{
		accounts: make(map[string]*account),
		revoked:  make(map[string]struct{}),
		users:    make(map[string]*domain.UserRecord),
		posts:    make(map[string]*domain.Post),
		comments: make(map[string]*domain.Comment),
		reports:  make(map[string]*domain.Report),
		now:      time.Now,
	}
}

// userByID matches either the record id or the identity id.
func (s *state) userByID(id string) *domain.UserRecord {
	if u, ok := s.users[id]; ok {
		return u
	}
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *state) postsByAuthor(authorID string) []domain.Post {
	var out []domain.Post
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			out = append(out, *p)
		}
	}
	sortPosts(out)
	return out
}

func sortPosts(posts []domain.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func paginate[T any](items []T, page, limit int) ([]T, int) {
	req := domain.PageRequest{Page: page, Limit: limit}.Normalize(10)
	total := len(items)
	pages := (total + req.Limit - 1) / req.Limit
	start := (req.Page - 1) * req.Limit
	if start >= total {
		return []T{}, pages
	}
	end := start + req.Limit
	if end > total {
		end = total
	}
	return items[start:end], pages
}

func cloneUser(u *domain.UserRecord) *domain.UserRecord {
	out := *u
	out.Badges = append([]domain.Badge(nil), u.Badges...)
	return &out
}

func sortUsers(users []domain.UserRecord) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].JoinedAt.Before(users[j].JoinedAt) ||
			(users[i].JoinedAt.Equal(users[j].JoinedAt) && users[i].ID < users[j].ID)
	})
}

func sortComments(comments []domain.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt) ||
			(comments[i].CreatedAt.Equal(comments[j].CreatedAt) && comments[i].ID < comments[j].ID)
	})
}

func sortReports(reports []domain.Report) {
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt) ||
			(reports[i].CreatedAt.Equal(reports[j].CreatedAt) && reports[i].ID < reports[j].ID)
	})
}
