package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_MasksSensitiveKeys(t *testing.T) {
	cases := map[string]string{
		"password":      "hunter2",
		"refresh_token": "rt-abcdefghijklmnop",
		"client_secret": "s3cret",
		"one_time_code": "123456",
		"credential":    "x",
	}
	for key, value := range cases {
		got := Sanitize(Field{Key: key, Value: value})
		assert.NotEqual(t, value, got.Value, "key %q must be masked", key)
	}
}

func TestSanitize_LongValuesKeepEdges(t *testing.T) {
	got := Sanitize(Field{Key: "token", Value: "rt-abcdefghijklmnop"})
	assert.Equal(t, "rt-a***mnop", got.Value)
}

func TestSanitize_PassesOrdinaryFields(t *testing.T) {
	got := Sanitize(Field{Key: "email", Value: "user@example.com"})
	assert.Equal(t, "user@example.com", got.Value)

	got = Sanitize(Field{Key: "status", Value: 200})
	assert.Equal(t, 200, got.Value)
}

func TestSanitize_NonStringSecretsFullyMasked(t *testing.T) {
	got := Sanitize(Field{Key: "token_count", Value: 3})
	assert.Equal(t, "***", got.Value)
}

func TestErrField(t *testing.T) {
	assert.Nil(t, Err(nil).Value)
	assert.Equal(t, "error", Err(nil).Key)
}
