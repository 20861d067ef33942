package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CryptobotClient talks to the Crypto Pay API to issue fiat invoices.
type CryptobotClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewCryptobotClient(baseURL, token string) *CryptobotClient {
	return &CryptobotClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *CryptobotClient) Enabled() bool {
	return c.token != ""
}

type cryptoInvoiceRequest struct {
	CurrencyType   string `json:"currency_type"`
	Fiat           string `json:"fiat"`
	Amount         string `json:"amount"`
	AcceptedAssets string `json:"accepted_assets,omitempty"`
	Description    string `json:"description,omitempty"`
	Payload        string `json:"payload,omitempty"`
}

type cryptoInvoiceResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		InvoiceID     int64  `json:"invoice_id"`
		BotInvoiceURL string `json:"bot_invoice_url"`
		PayURL        string `json:"pay_url"`
	} `json:"result"`
	Error struct {
		Code int    `json:"code"`
		Name string `json:"name"`
	} `json:"error"`
}

type CryptoInvoice struct {
	InvoiceID int64
	PayURL    string
}

// CreateInvoice issues a ruble-denominated invoice and returns the
// payment link to hand to the user. An empty asset leaves the payer
// free to settle in any currency the provider supports.
func (c *CryptobotClient) CreateInvoice(ctx context.Context, userID int64, amountRub int, asset string) (*CryptoInvoice, error) {
	body, err := json.Marshal(cryptoInvoiceRequest{
		CurrencyType:   "fiat",
		Fiat:           "RUB",
		Amount:         fmt.Sprintf("%d", amountRub),
		AcceptedAssets: strings.ToUpper(asset),
		Description:    fmt.Sprintf("Пополнение баланса на %d₽", amountRub),
		Payload:        fmt.Sprintf("crypto_payment_%d_%d", userID, amountRub),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/createInvoice", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Crypto-Pay-API-Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cryptobot request: %w", err)
	}
	defer resp.Body.Close()

	var decoded cryptoInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("cryptobot response: %w", err)
	}
	if !decoded.OK {
		return nil, fmt.Errorf("cryptobot error %d: %s", decoded.Error.Code, decoded.Error.Name)
	}

	url := decoded.Result.BotInvoiceURL
	if url == "" {
		url = decoded.Result.PayURL
	}
	return &CryptoInvoice{InvoiceID: decoded.Result.InvoiceID, PayURL: url}, nil
}
