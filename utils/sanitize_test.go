package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeComponent(t *testing.T) {
	for _, testcase := range []struct {
		in       string
		expected string
	}{
		{"acme", "acme"},
		{"tenant-1_a.b", "tenant-1_a.b"},
		{"a/b", "a%2Fb"},
		{"../etc", "%2E%2E%2Fetc"},
		{"..", "%2E%2E"},
		{".hidden", "%2Ehidden"},
		{"trailing.", "trailing%2E"},
		{"new\nline", "new%0Aline"},
		{"", ""},
	} {
		assert.Equal(t, testcase.expected, SanitizeComponent(testcase.in),
			"%q", testcase.in)
	}
}

func TestSanitizeComponentLong(t *testing.T) {
	// Oversized values are truncated, not mangled.
	result := SanitizeComponent(strings.Repeat("a", 5000))
	assert.Equal(t, strings.Repeat("a", 1024), result)

	// Even when every byte expands to an escape sequence.
	result = SanitizeComponent(strings.Repeat("/", 5000))
	assert.Equal(t, strings.Repeat("%2F", 1024), result)
}
