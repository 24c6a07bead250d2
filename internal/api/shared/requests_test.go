package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Task string `json:"task" validate:"required"`
	Tone string `json:"tone" validate:"omitempty,max=5"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{name: "valid json", requestBody: `{"task": "explain maps"}`},
		{name: "invalid json", requestBody: `{"task": "x",}`, wantErr: true, errContains: "invalid character"},
		{name: "empty body", requestBody: "", wantErr: true, errContains: "EOF"},
		{name: "unknown field", requestBody: `{"task": "x", "extra": 1}`, wantErr: true, errContains: "unknown field"},
		{name: "trailing object", requestBody: `{"task": "x"}{"task": "y"}`, wantErr: true, errContains: "single JSON object"},
		{
			name:        "oversized body",
			requestBody: `{"task": "` + strings.Repeat("a", MaxBodyBytes) + `"}`,
			wantErr:     true,
			errContains: "too large",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.requestBody))
			w := httptest.NewRecorder()

			var target decodeTarget
			err := DecodeJSON(w, req, &target)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "explain maps", target.Task)
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return assert.AnError
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&decodeTarget{Task: "x"}))
	assert.Error(t, ValidateRequest(&decodeTarget{}))
	assert.Error(t, ValidateRequest(&decodeTarget{Task: "x", Tone: "too long"}))

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.ErrorIs(t, ValidateRequest(selfValidating{}), assert.AnError)
}
