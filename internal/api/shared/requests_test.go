package shared

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/task-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{name: "valid json", requestBody: `{"name": "test", "age": 30}`},
		{name: "invalid json", requestBody: `{"name": "test", "age": 30,}`, wantErr: true, errContains: "invalid character"},
		{name: "empty body", requestBody: "", wantErr: true, errContains: "EOF"},
		{name: "oversized body", requestBody: `{"name": "` + strings.Repeat("a", MaxBodyBytes) + `"}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.requestBody))

			var target payload
			err := DecodeJSON(req, &target)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, payload{Name: "test", Age: 30}, target)
		})
	}
}

type errorReader struct{}

func (er errorReader) Read(p []byte) (n int, err error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})
	var target struct{}
	err := DecodeJSON(req, &target)
	assert.ErrorContains(t, err, "unexpected EOF")
}

type selfValidating struct {
	Name string
}

func (v *selfValidating) Validate() error {
	if v.Name == "invalid" {
		return domain.NewValidationError("name", "Name is invalid")
	}
	return nil
}

type taggedRequest struct {
	Email  string `json:"email"  validate:"required,email" msg:"Invalid email format"`
	UserID string `json:"userId" validate:"required,uuid"`
	Note   string `json:"note"   validate:"max=5"`
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	t.Run("self validating", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidateRequest(&selfValidating{Name: "ok"}))
		assert.ErrorIs(t, ValidateRequest(&selfValidating{Name: "invalid"}), domain.ErrValidation)
	})

	t.Run("valid tags", func(t *testing.T) {
		t.Parallel()
		err := ValidateRequest(&taggedRequest{
			Email:  "ada@example.com",
			UserID: "7f5e3b1e-4a5b-4c1d-9e8f-0a1b2c3d4e5f",
		})
		assert.NoError(t, err)
	})

	t.Run("violations use json names and msg tags", func(t *testing.T) {
		t.Parallel()
		err := ValidateRequest(&taggedRequest{Email: "nope", UserID: "42", Note: "too long"})
		require.ErrorIs(t, err, domain.ErrValidation)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []domain.FieldViolation{
			{Field: "email", Message: "Invalid email format"},
			{Field: "userId", Message: "userId must be a valid UUID"},
			{Field: "note", Message: "note is too long"},
		}, verr.Violations)
	})

	t.Run("missing required field", func(t *testing.T) {
		t.Parallel()
		err := ValidateRequest(&taggedRequest{Email: "ada@example.com"})
		assert.EqualError(t, err, "userId is required")
	})
}
