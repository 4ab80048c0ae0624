package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrAccessTokenMissing means MP_ACCESS_TOKEN is unset. The server still
// starts; any request that reaches the gateway fails with this.
var ErrAccessTokenMissing = errors.New("MP_ACCESS_TOKEN not configured")

type PreferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int64   `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
	UnitPrice  float64 `json:"unit_price"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type Phone struct {
	Number int64 `json:"number"`
}

type Address struct {
	StreetName string `json:"street_name"`
	ZipCode    string `json:"zip_code"`
}

type Payer struct {
	Name    string  `json:"name"`
	Phone   *Phone  `json:"phone,omitempty"`
	Address Address `json:"address"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem       `json:"items"`
	ExternalReference string                 `json:"external_reference"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	BackURLs          BackURLs               `json:"back_urls"`
	AutoReturn        string                 `json:"auto_return,omitempty"`
	NotificationURL   string                 `json:"notification_url,omitempty"`
	Payer             *Payer                 `json:"payer,omitempty"`
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type Payment struct {
	ID                json.Number            `json:"id"`
	Status            string                 `json:"status"`
	StatusDetail      string                 `json:"status_detail"`
	ExternalReference string                 `json:"external_reference"`
	Metadata          map[string]interface{} `json:"metadata"`
	TransactionAmount float64                `json:"transaction_amount"`
	PaymentTypeID     string                 `json:"payment_type_id"`
}

// OrderID resolves the local order for a payment: preference metadata first
// (the gateway lowercases metadata keys, so both spellings are checked),
// external_reference as fallback. Empty when neither is set.
func (p *Payment) OrderID() string {
	for _, key := range []string{"order_id", "orderId"} {
		if v, ok := p.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return p.ExternalReference
}

type MercadoPagoClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewMercadoPagoClient(baseURL, accessToken string, timeout time.Duration) *MercadoPagoClient {
	return &MercadoPagoClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *MercadoPagoClient) CreatePreference(ctx context.Context, pref *PreferenceRequest) (*Preference, error) {
	if c.accessToken == "" {
		return nil, ErrAccessTokenMissing
	}

	body, err := json.Marshal(pref)
	if err != nil {
		return nil, fmt.Errorf("encode preference: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("mercadopago preferences returned status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var out Preference
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if c.accessToken == "" {
		return nil, ErrAccessTokenMissing
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mercadopago payments returned status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var out Payment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MercadoPagoClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
