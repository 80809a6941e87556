// Package abacatepay talks to the AbacatePay PIX billing API.
package abacatepay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yuirsilva/deadline-daddy/internal/payment"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.abacatepay.com"

var _ payment.Provider = (*Client)(nil)

// Client is an AbacatePay API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, apiKey string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type product struct {
	ExternalID  string `json:"externalId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}

type customer struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	Cellphone string `json:"cellphone,omitempty"`
	TaxID     string `json:"taxId,omitempty"`
}

type createBillingRequest struct {
	Frequency     string    `json:"frequency"`
	Methods       []string  `json:"methods"`
	Products      []product `json:"products"`
	ReturnURL     string    `json:"returnUrl"`
	CompletionURL string    `json:"completionUrl"`
	Customer      customer  `json:"customer"`
}

type createBillingResponse struct {
	Data *struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
	Error *string `json:"error"`
}

// CreateBilling opens a one-time PIX billing for req.Amount centavos.
func (c *Client) CreateBilling(ctx context.Context, req payment.BillingRequest) (payment.Billing, error) {
	if c.apiKey == "" {
		return payment.Billing{}, fmt.Errorf("%w: api key not configured", payment.ErrProvider)
	}

	body, err := json.Marshal(createBillingRequest{
		Frequency: "ONE_TIME",
		Methods:   []string{"PIX"},
		Products: []product{{
			ExternalID:  req.Reference,
			Name:        req.Name,
			Description: req.Description,
			Quantity:    1,
			Price:       req.Amount,
		}},
		ReturnURL:     req.ReturnURL,
		CompletionURL: req.CompletionURL,
		Customer: customer{
			Name:      req.Customer.Name,
			Email:     req.Customer.Email,
			Cellphone: req.Customer.Cellphone,
			TaxID:     req.Customer.TaxID,
		},
	})
	if err != nil {
		return payment.Billing{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/billing/create", bytes.NewReader(body))
	if err != nil {
		return payment.Billing{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return payment.Billing{}, fmt.Errorf("%w: %v", payment.ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return payment.Billing{}, fmt.Errorf("%w: read response: %v", payment.ErrProvider, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return payment.Billing{}, fmt.Errorf("%w: status %d", payment.ErrProvider, resp.StatusCode)
	}

	var out createBillingResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return payment.Billing{}, fmt.Errorf("%w: decode response: %v", payment.ErrProvider, err)
	}
	if out.Error != nil && *out.Error != "" {
		return payment.Billing{}, fmt.Errorf("%w: %s", payment.ErrProvider, *out.Error)
	}
	if out.Data == nil {
		return payment.Billing{}, nil
	}
	return payment.Billing{ID: out.Data.ID, URL: out.Data.URL}, nil
}
