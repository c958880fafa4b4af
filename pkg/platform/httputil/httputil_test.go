package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/nirvagold/DapoMaster/pkg/domain-errors"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation maps to 400", dErrors.New(dErrors.CodeValidation, "bad input"), http.StatusBadRequest, "validation_error"},
		{"not found maps to 404", dErrors.New(dErrors.CodeNotFound, "missing"), http.StatusNotFound, "not_found"},
		{"busy maps to 409", dErrors.New(dErrors.CodeBusy, "locked"), http.StatusConflict, "busy"},
		{"invalid state maps to 409", dErrors.New(dErrors.CodeInvalidState, "wrong state"), http.StatusConflict, "invalid_state"},
		{"invariant violation maps to 422", dErrors.New(dErrors.CodeInvariantViolation, "counts disagree"), http.StatusUnprocessableEntity, "invariant_violation"},
		{"plain error maps to 500", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeBody(t, rec)["error"])
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeInternal, "database credentials rejected"))

	body := decodeBody(t, rec)
	assert.Equal(t, "internal_error", body["error"])
	assert.NotContains(t, body, "error_description")
}

func TestWriteErrorExposesClientDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeValidation, "actor id is required"))

	body := decodeBody(t, rec)
	assert.Equal(t, "actor id is required", body["error_description"])
}

type prepReq struct {
	Name string `json:"name"`
}

func (r *prepReq) Normalize() { r.Name = strings.TrimSpace(r.Name) }

func (r *prepReq) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("decodes normalizes and validates", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  budi  "}`))

		got, ok := DecodeAndPrepare[prepReq](rec, req, nil, req.Context(), "")
		require.True(t, ok)
		assert.Equal(t, "budi", got.Name)
	})

	t.Run("malformed body writes bad request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))

		_, ok := DecodeAndPrepare[prepReq](rec, req, nil, req.Context(), "")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("failed validation writes validation error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  "}`))

		_, ok := DecodeAndPrepare[prepReq](rec, req, nil, req.Context(), "")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", decodeBody(t, rec)["error"])
	})

	t.Run("empty body decodes to the zero value", func(t *testing.T) {
		type optional struct {
			Hours *int `json:"hours"`
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

		got, ok := DecodeAndPrepare[optional](rec, req, nil, req.Context(), "")
		require.True(t, ok)
		assert.Nil(t, got.Hours)
	})
}
