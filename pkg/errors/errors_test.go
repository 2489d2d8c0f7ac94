package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := NewWithCode(ErrorTypeTransport, 503, "upstream said %s", "no")
	assert.Equal(t, "transport error (code 503): upstream said no", err.Error())

	err = New(ErrorTypeDecode, "bad body")
	assert.Equal(t, "decode error (code 0): bad body", err.Error())
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeUpstream, "record not found")

	assert.True(t, IsType(err, ErrorTypeUpstream))
	assert.False(t, IsType(err, ErrorTypeTransport))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeUpstream))
	assert.False(t, IsType(nil, ErrorTypeUpstream))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrorTypeCredential, "no credentials")))
	assert.True(t, IsFatal(NewWithCode(ErrorTypeAuthentication, 401, "bad login")))

	assert.False(t, IsFatal(NewWithCode(ErrorTypeTransport, 500, "boom")))
	assert.False(t, IsFatal(New(ErrorTypeDecode, "bad json")))
	assert.False(t, IsFatal(New(ErrorTypeUpstream, "platform error")))
	assert.False(t, IsFatal(NewWithCode(ErrorTypeNotFound, 404, "gone")))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestIsStreamEnding(t *testing.T) {
	assert.False(t, IsStreamEnding(nil))
	assert.True(t, IsStreamEnding(New(ErrorTypeTransport, "boom")))
	assert.True(t, IsStreamEnding(errors.New("plain")))
}
