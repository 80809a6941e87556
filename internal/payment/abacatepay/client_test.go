package abacatepay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuirsilva/deadline-daddy/internal/payment"
)

func sampleRequest() payment.BillingRequest {
	return payment.BillingRequest{
		Reference:   "deposit-1-abc",
		Amount:      2000,
		Name:        "Depósito Deadline Daddy",
		Description: "Depósito de R$20,00",
		Customer: payment.Customer{
			Name:      "Ana",
			Email:     "ana@example.com",
			Cellphone: "+5511999990000",
			TaxID:     "12345678909",
		},
		ReturnURL:     "https://app.example.com/carteira",
		CompletionURL: "https://app.example.com/carteira?deposito=sucesso",
	}
}

func TestCreateBillingSendsOneTimePix(t *testing.T) {
	var got createBillingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/billing/create", r.URL.Path)
		assert.Equal(t, "Bearer key_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"id":"bill_123","url":"https://pay.example/bill_123"},"error":null}`))
	}))
	defer srv.Close()

	billing, err := NewClient(srv.URL, "key_test").CreateBilling(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, payment.Billing{ID: "bill_123", URL: "https://pay.example/bill_123"}, billing)

	assert.Equal(t, "ONE_TIME", got.Frequency)
	assert.Equal(t, []string{"PIX"}, got.Methods)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "deposit-1-abc", got.Products[0].ExternalID)
	assert.Equal(t, int64(2000), got.Products[0].Price)
	assert.Equal(t, 1, got.Products[0].Quantity)
	assert.Equal(t, "12345678909", got.Customer.TaxID)
	assert.Equal(t, "https://app.example.com/carteira?deposito=sucesso", got.CompletionURL)
}

func TestCreateBillingProviderErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"error field": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":null,"error":"invalid customer"}`))
		},
		"garbage": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewClient(srv.URL, "key").CreateBilling(context.Background(), sampleRequest())
			assert.ErrorIs(t, err, payment.ErrProvider)
		})
	}
}

func TestCreateBillingWithoutData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"error":null}`))
	}))
	defer srv.Close()

	billing, err := NewClient(srv.URL, "key").CreateBilling(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Empty(t, billing.ID)
}

func TestCreateBillingRequiresKey(t *testing.T) {
	_, err := NewClient("", "").CreateBilling(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, payment.ErrProvider)
}
