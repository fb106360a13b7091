package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	assert.Len(t, a, 24)
	assert.NotEqual(t, a, b)
}

func TestFileSuffix(t *testing.T) {
	pattern := regexp.MustCompile(`^\d+-\d+$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := FileSuffix()
		assert.Regexp(t, pattern, s)
		assert.False(t, seen[s], "duplicate suffix %s", s)
		seen[s] = true
	}
}
