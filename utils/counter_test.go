package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSinkId(t *testing.T) {
	a := NewSinkId()
	b := NewSinkId()

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
