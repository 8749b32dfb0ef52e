package response

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOKWithData(t *testing.T) {
	b, err := json.Marshal(StatusOKWithData(map[string]int{"id": 7}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"OK","data":{"id":7}}`, string(b))
}

func TestErrorKind(t *testing.T) {
	b, err := json.Marshal(ErrorKind(KindInvalidStateTransition, "subscription is not active"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Error","error":"subscription is not active","kind":"invalid_state_transition"}`, string(b))

	b, err = json.Marshal(Error("boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Error","error":"boom"}`, string(b))
}

func TestValidationError(t *testing.T) {
	type req struct {
		Username string `validate:"required"`
		Email    string `validate:"email"`
		Password string `validate:"min=6"`
		Category string `validate:"oneof=Basic Premium"`
	}

	err := validator.New().Struct(req{Email: "nope", Password: "123", Category: "Gold"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, KindValidation, resp.Kind)
	assert.Equal(t,
		"field Username is a required field, field Email must be a valid email, "+
			"field Password must be at least 6 characters, field Category must be one of: Basic Premium",
		resp.Error)
}
