package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Badge string

const (
	BadgeBronze Badge = "bronze"
	BadgeGold   Badge = "gold"
)

// UserRecord is the application profile stored by the forum API.
type UserRecord struct {
	ID         string    `json:"_id"`
	IdentityID string    `json:"uid"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar,omitempty"`
	Role       Role      `json:"role"`
	Badges     []Badge   `json:"badges"`
	JoinedAt   time.Time `json:"createdAt"`
}

func (u *UserRecord) HasBadge(b Badge) bool {
	if u == nil {
		return false
	}
	for _, have := range u.Badges {
		if have == b {
			return true
		}
	}
	return false
}

// IsPremium reports the paid tier.
func (u *UserRecord) IsPremium() bool {
	return u.HasBadge(BadgeGold)
}

func (u *UserRecord) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NewUserProfile is the body sent to register a profile after sign-up.
type NewUserProfile struct {
	IdentityID string `json:"uid"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar,omitempty"`
}

type UserFilter struct {
	Page   int
	Limit  int
	Search string
}

// SiteStats backs the admin profile view.
type SiteStats struct {
	TotalPosts    int `json:"totalPosts"`
	TotalComments int `json:"totalComments"`
	TotalUsers    int `json:"totalUsers"`
}
