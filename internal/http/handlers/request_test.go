package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/models/dto"
	"github.com/yuirsilva/deadline-daddy/internal/payment"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

func TestWriteErrorStatuses(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.Invalid("penalty", "must be between %d and %d", 100, 10000), http.StatusBadRequest},
		{models.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("load: %w", storage.ErrNotFound), http.StatusNotFound},
		{models.ErrTaskFinalized, http.StatusConflict},
		{storage.ErrAlreadyExists, http.StatusConflict},
		{models.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{models.ErrProfileIncomplete, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: timeout", payment.ErrProvider), http.StatusBadGateway},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, zap.NewNop(), tt.err)
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}

func TestDecodeReportsJSONFieldNames(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"proofUrl":"not a url"}`))

	var body dto.SubmitProofRequest
	ok := decode(rec, req, &body)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"proofUrl":"must be a valid URL"`)
}

func TestDecodeTypeMismatch(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"twenty"}`))

	var body dto.DepositRequest
	assert.False(t, decode(rec, req, &body))
	assert.Contains(t, rec.Body.String(), `"amount":"has invalid type"`)
}

func TestDecodeMalformed(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))

	var body dto.LoginRequest
	assert.False(t, decode(rec, req, &body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":2000,"balance":999999}`))

	var body dto.DepositRequest
	assert.False(t, decode(rec, req, &body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":"is not allowed"`)
}
