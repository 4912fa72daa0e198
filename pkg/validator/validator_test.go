package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"business_phone" validate:"omitempty,lkphone"`
	Role     string `json:"role" validate:"required,oneof=provider user"`
}

func TestStruct(t *testing.T) {
	t.Run("Valid request", func(t *testing.T) {
		req := signUpRequest{Email: "owner@example.com", Password: "long-enough", Role: "provider", Phone: "0771234567"}
		assert.NoError(t, Struct(req))
	})

	t.Run("Collects every field error by json name", func(t *testing.T) {
		req := signUpRequest{Email: "not-an-email", Password: "short", Role: "admin", Phone: "123"}
		err := Struct(req)
		require.Error(t, err)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))

		byField := map[string]string{}
		for _, f := range verr.Fields {
			byField[f.Field] = f.Message
		}
		assert.Equal(t, "must be a valid email address", byField["email"])
		assert.Equal(t, "must be at least 8 characters", byField["password"])
		assert.Equal(t, "must be one of: provider user", byField["role"])
		assert.Equal(t, "must be a valid Sri Lankan phone number", byField["business_phone"])
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("Missing required fields", func(t *testing.T) {
		err := Struct(signUpRequest{})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 3)
	})
}

func TestTranslate_PassesThroughOtherErrors(t *testing.T) {
	other := errors.New("boom")
	assert.Equal(t, other, Translate(other))
}
