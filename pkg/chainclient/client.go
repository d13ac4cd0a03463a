package chainclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"freelance-escrow-go/internal/models"
)

// Client talks to the external value-transfer node over HTTP. A transfer
// either settles before the call returns or fails with no partial movement;
// the node guarantees atomicity, the client only reports the outcome.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a transfer client against the node's base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

type transferRequest struct {
	From   models.Address  `json:"from"`
	To     models.Address  `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Transfer posts one atomic transfer and returns its outcome.
func (c *Client) Transfer(from, to models.Address, amount decimal.Decimal) error {
	body, err := json.Marshal(transferRequest{From: from, To: to, Amount: amount})
	if err != nil {
		return fmt.Errorf("encode transfer: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+"/transfers", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("transfer rejected: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
