package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Sentinel Matching
// ==========================

func TestSentinelsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("row %d: %w", 2, NewUnknownOutletError("OUT999"))

	assert.True(t, stderrors.Is(err, ErrUnknownOutlet))
	assert.False(t, stderrors.Is(err, ErrMissingField))
	assert.False(t, stderrors.Is(err, ErrSchemaMismatch))
}

func TestMissingFieldDistinctFromUnknownOutlet(t *testing.T) {
	missing := NewMissingFieldError("Outlet_Identifier")
	unknown := NewUnknownOutletError("")

	assert.True(t, stderrors.Is(missing, ErrMissingField))
	assert.False(t, stderrors.Is(missing, ErrUnknownOutlet))
	assert.True(t, stderrors.Is(unknown, ErrUnknownOutlet))
	assert.Equal(t, "Outlet_Identifier", missing.Metadata["field"])
}

func TestSchemaMismatchDetails(t *testing.T) {
	err := NewSchemaMismatchError([]string{"Item_Weight"}, []string{"Promo"})

	assert.Equal(t, ErrCodeSchemaMismatch, err.Code)
	assert.Contains(t, err.Details, "missing: Item_Weight")
	assert.Contains(t, err.Details, "unexpected: Promo")
}

func TestPaletteIncompleteSortsCategories(t *testing.T) {
	err := NewPaletteIncompleteError([]string{"Snacks", "Candy"})
	assert.Equal(t, "Candy, Snacks", err.Details)
}

func TestModelLoadFailedUnwrapsCause(t *testing.T) {
	cause := stderrors.New("no such file")
	err := NewModelLoadFailedError("model.json", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, ErrModelLoadFailed))
}

// ==========================
// Normalization & BPMN
// ==========================

func TestNormalize(t *testing.T) {
	t.Run("plain error becomes internal", func(t *testing.T) {
		stdErr := Normalize(stderrors.New("boom"))
		assert.Equal(t, ErrCodeInternal, stdErr.Code)
		assert.Equal(t, "boom", stdErr.Details)
	})

	t.Run("wrapped standard error keeps code and outer text", func(t *testing.T) {
		stdErr := Normalize(fmt.Errorf("row 3: %w", NewUnknownOutletError("X")))
		assert.Equal(t, ErrCodeUnknownOutlet, stdErr.Code)
		assert.Contains(t, stdErr.Details, "row 3")
	})
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{"validation is thrown", NewMissingFieldError("Item_MRP"), 0},
		{"schema mismatch is thrown", NewSchemaMismatchError([]string{"x"}, nil), 0},
		{"store failure retries", NewResultStoreError(stderrors.New("down")), 3},
		{"outlet source retries", NewOutletSourceError("postgres", stderrors.New("down")), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			require.NotNil(t, bpmnErr)
			assert.Equal(t, string(tt.err.Code), bpmnErr.Code)
			assert.Equal(t, tt.wantRetries, bpmnErr.Retries)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ToErrorVariables()["originalErrorCode"])
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeUnknownOutlet))
	assert.Equal(t, "MODEL", GetErrorCategory(ErrCodeSchemaMismatch))
	assert.Equal(t, "STORE", GetErrorCategory(ErrCodeResultNotFound))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

// ==========================
// HTTP Boundary
// ==========================

func TestHTTPStatusAndUserMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing field", NewMissingFieldError("Outlet_Identifier"), http.StatusUnprocessableEntity, `missing required field "Outlet_Identifier"`},
		{"unknown outlet", NewUnknownOutletError("OUT999"), http.StatusUnprocessableEntity, `unknown outlet identifier "OUT999"`},
		{"schema mismatch is generic", NewSchemaMismatchError([]string{"Item_Weight"}, nil), http.StatusInternalServerError, GenericPredictionMessage},
		{"plain error is generic", stderrors.New("kaboom"), http.StatusInternalServerError, GenericPredictionMessage},
		{"result not found", NewResultNotFoundError("abc"), http.StatusNotFound, "batch result not found or expired"},
		{"strict batch row keeps its number", fmt.Errorf("row 2: %w", NewUnknownOutletError("OUT999")), http.StatusUnprocessableEntity, `row 2: unknown outlet identifier "OUT999"`},
		{"missing field in a row", fmt.Errorf("row 4: %w", NewMissingFieldError("Outlet_Identifier")), http.StatusUnprocessableEntity, `row 4: missing required field "Outlet_Identifier"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, HTTPStatus(tt.err))
			assert.Equal(t, tt.wantMsg, UserMessage(tt.err))
		})
	}
}
