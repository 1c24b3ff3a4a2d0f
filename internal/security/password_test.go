package security_test

import (
	"testing"

	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/stretchr/testify/assert"
)

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		score    int
		strength string
	}{
		{"", 0, "weak"},
		{"abc", 1, "weak"},
		{"abcdefgh", 2, "weak"},
		{"Abcdefgh", 3, "medium"},
		{"Abcdefg1", 4, "strong"},
		{"Abcdef1!", 5, "strong"},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			got := security.CheckPasswordStrength(tt.password)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.strength, got.Strength)
		})
	}
}

func TestCheckPasswordStrength_Criteria(t *testing.T) {
	got := security.CheckPasswordStrength("a1?")
	assert.False(t, got.Length)
	assert.False(t, got.Uppercase)
	assert.True(t, got.Lowercase)
	assert.True(t, got.Number)
	assert.True(t, got.Special)
}
