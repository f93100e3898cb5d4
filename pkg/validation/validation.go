package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// IDRegex matches identity ids and remote record ids.
	IDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	tagRegex = regexp.MustCompile(`^[a-zA-Z0-9 _.+#-]+$`)
)

const (
	MinTitleLength   = 5
	MaxTitleLength   = 150
	MaxContentLength = 10000
	MaxCommentLength = 2000
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateDisplayName validates the name shown on posts and comments.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("name contains invalid characters")
	}
	return ValidateStringLength(name, 2, 60, "name")
}

// ValidatePassword validates password
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password is too long (max 128 characters)")
	}
	return nil
}

// ValidateID validates a remote record or identity id.
func ValidateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(id) > 128 {
		return fmt.Errorf("%s is too long (max 128 characters)", fieldName)
	}
	if !IDRegex.MatchString(id) {
		return fmt.Errorf("invalid %s format", fieldName)
	}
	return nil
}

func ValidatePostTitle(title string) error {
	if err := ValidateNonEmptyString(title, "title"); err != nil {
		return err
	}
	return ValidateStringLength(strings.TrimSpace(title), MinTitleLength, MaxTitleLength, "title")
}

func ValidateContent(content string, max int, fieldName string) error {
	if err := ValidateNonEmptyString(content, fieldName); err != nil {
		return err
	}
	return ValidateStringLength(content, 1, max, fieldName)
}

func ValidateTagName(name string) error {
	name = strings.TrimSpace(name)
	if err := ValidateStringLength(name, 2, 30, "tag"); err != nil {
		return err
	}
	if !tagRegex.MatchString(name) {
		return fmt.Errorf("tag contains invalid characters")
	}
	return nil
}

// ValidateURL validates URL format
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme (must be http or https)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidatePagination bounds page and limit query parameters.
func ValidatePagination(page, limit int) error {
	if page < 0 {
		return fmt.Errorf("page must be >= 1")
	}
	if limit < 0 || limit > 100 {
		return fmt.Errorf("limit must be between 1 and 100")
	}
	return nil
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
