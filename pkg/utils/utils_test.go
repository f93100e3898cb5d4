package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID("post")
	b := GenerateID("post")

	assert.True(t, strings.HasPrefix(a, "post_"))
	assert.NotEqual(t, a, b)
	assert.Len(t, GenerateID(""), 32)
}

func TestGenerateRequestID(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateRequestID(), "req_"))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", MaskToken("abc"))
	assert.Equal(t, "***456789", MaskToken("eyJ0123456789"))
}
