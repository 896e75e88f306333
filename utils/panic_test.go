package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverIntoError(t *testing.T) {
	faulty := func() (err error) {
		defer RecoverIntoError(&err)
		panic("boom")
	}

	err := faulty()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PANIC")
	assert.Contains(t, err.Error(), "boom")

	// No panic leaves the error alone.
	healthy := func() (err error) {
		defer RecoverIntoError(&err)
		return nil
	}
	assert.NoError(t, healthy())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))

	sentinel := errors.New("inner")
	err := Wrap(sentinel, "outer")
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "outer: inner", err.Error())
}
