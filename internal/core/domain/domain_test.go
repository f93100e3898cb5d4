package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionSnapshot(t *testing.T) {
	assert.True(t, SessionSnapshot{}.Loading())
	assert.Equal(t, "", SessionSnapshot{State: SessionAnonymous}.IdentityID())

	snap := SessionSnapshot{State: SessionAuthenticated, Session: &Session{IdentityID: "uid-1"}}
	assert.False(t, snap.Loading())
	assert.True(t, snap.Authenticated())
	assert.Equal(t, "uid-1", snap.IdentityID())
}

func TestUserRecord_Badges(t *testing.T) {
	var nilUser *UserRecord
	assert.False(t, nilUser.IsPremium())
	assert.False(t, nilUser.IsAdmin())

	u := &UserRecord{Role: RoleAdmin, Badges: []Badge{BadgeBronze, BadgeGold}}
	assert.True(t, u.IsPremium())
	assert.True(t, u.IsAdmin())
}

func TestReportStatus(t *testing.T) {
	assert.False(t, ReportPending.IsTerminal())
	assert.True(t, ReportResolved.IsTerminal())
	assert.True(t, ReportDismissed.IsTerminal())
	assert.False(t, ReportStatus("archived").Valid())
}

func TestReportReason(t *testing.T) {
	assert.True(t, ReasonHateSpeech.Valid())
	assert.False(t, ReportReason("boring").Valid())
}

func TestPost_Score(t *testing.T) {
	p := Post{Upvotes: []string{"a", "b", "c"}, Downvotes: []string{"d"}}
	assert.Equal(t, 2, p.Score())
}

func TestPageRequest_Normalize(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 1, Limit: 10}, PageRequest{}.Normalize(10))
	assert.Equal(t, PageRequest{Page: 3, Limit: 5}, PageRequest{Page: 3, Limit: 5}.Normalize(10))
}
