// Thin delegates over testify's assert package. They accept the
// assert.TestingT interface so the same assertions work on a
// *testing.T and on the retry harness R.
package assert

import (
	"github.com/stretchr/testify/assert"
)

type TestingT = assert.TestingT

func True(t assert.TestingT, value bool, msgAndArgs ...interface{}) bool {
	return assert.True(t, value, msgAndArgs...)
}

func False(t assert.TestingT, value bool, msgAndArgs ...interface{}) bool {
	return assert.False(t, value, msgAndArgs...)
}

func Equal(t assert.TestingT, expected, actual interface{},
	msgAndArgs ...interface{}) bool {
	return assert.Equal(t, expected, actual, msgAndArgs...)
}

func NotEqual(t assert.TestingT, expected, actual interface{},
	msgAndArgs ...interface{}) bool {
	return assert.NotEqual(t, expected, actual, msgAndArgs...)
}

func NoError(t assert.TestingT, err error, msgAndArgs ...interface{}) bool {
	return assert.NoError(t, err, msgAndArgs...)
}

func Error(t assert.TestingT, err error, msgAndArgs ...interface{}) bool {
	return assert.Error(t, err, msgAndArgs...)
}

func ErrorIs(t assert.TestingT, err, target error,
	msgAndArgs ...interface{}) bool {
	return assert.ErrorIs(t, err, target, msgAndArgs...)
}

func Nil(t assert.TestingT, object interface{}, msgAndArgs ...interface{}) bool {
	return assert.Nil(t, object, msgAndArgs...)
}

func NotNil(t assert.TestingT, object interface{},
	msgAndArgs ...interface{}) bool {
	return assert.NotNil(t, object, msgAndArgs...)
}

func Contains(t assert.TestingT, s, contains interface{},
	msgAndArgs ...interface{}) bool {
	return assert.Contains(t, s, contains, msgAndArgs...)
}

func Len(t assert.TestingT, object interface{}, length int,
	msgAndArgs ...interface{}) bool {
	return assert.Len(t, object, length, msgAndArgs...)
}
