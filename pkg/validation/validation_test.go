package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "user@example.com", false},
		{"valid email with subdomain", "user@mail.example.com", false},
		{"empty email", "", true},
		{"invalid format", "invalid-email", true},
		{"missing @", "userexample.com", true},
		{"too long", strings.Repeat("a", 250) + "@example.com", true},
		{"valid with plus", "user+tag@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			assert.Equal(t, tt.wantErr, err != nil, "ValidateEmail(%q) = %v", tt.email, err)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("12345"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 129)))
	assert.NoError(t, ValidatePassword("hunter22"))
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("64f1a2b3c4d5e6f708192a3b", "report id"))
	assert.NoError(t, ValidateID("uid_abc-123", "identity id"))
	assert.Error(t, ValidateID("", "report id"))
	assert.Error(t, ValidateID("../etc", "report id"))
	assert.Error(t, ValidateID(strings.Repeat("a", 129), "report id"))
}

func TestValidatePostTitle(t *testing.T) {
	assert.Error(t, ValidatePostTitle("   "))
	assert.Error(t, ValidatePostTitle("Hey"))
	assert.NoError(t, ValidatePostTitle("Hello world"))
	assert.Error(t, ValidatePostTitle(strings.Repeat("t", MaxTitleLength+1)))
}

func TestValidateTagName(t *testing.T) {
	assert.NoError(t, ValidateTagName("golang"))
	assert.NoError(t, ValidateTagName("c++"))
	assert.Error(t, ValidateTagName("x"))
	assert.Error(t, ValidateTagName("<script>"))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://i.ibb.co/avatar.png"))
	assert.Error(t, ValidateURL("ftp://example.com"))
	assert.Error(t, ValidateURL("https://"))
	assert.Error(t, ValidateURL(""))
}

func TestValidatePagination(t *testing.T) {
	assert.NoError(t, ValidatePagination(1, 10))
	assert.NoError(t, ValidatePagination(0, 0))
	assert.Error(t, ValidatePagination(-1, 10))
	assert.Error(t, ValidatePagination(1, 101))
}
