// Package ocr calls the external invoice-scanning service. The engine
// never trusts its output directly; drafts go back to a human for review
// before they touch inventory.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fyra/backend/internal/domain"
)

var ErrUnavailable = errors.New("ocr service unavailable")

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL string, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a service endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type scanRequest struct {
	Image     string           `json:"image"`
	MimeType  string           `json:"mime_type"`
	Inventory []inventoryEntry `json:"inventory"`
}

type inventoryEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// Scan sends the invoice image plus the current ingredient names, so the
// service can propose matches against existing inventory.
func (c *Client) Scan(ctx context.Context, image []byte, mimeType string, inventory []domain.Ingredient) (*domain.InvoiceDraft, error) {
	if !c.Enabled() {
		return nil, ErrUnavailable
	}
	if len(image) == 0 {
		return nil, errors.New("ocr: empty image")
	}

	entries := make([]inventoryEntry, 0, len(inventory))
	for _, ing := range inventory {
		if ing.Deleted {
			continue
		}
		entries = append(entries, inventoryEntry{ID: ing.ID, Name: ing.Name, Unit: ing.Unit})
	}
	payload, err := json.Marshal(scanRequest{
		Image:     base64.StdEncoding.EncodeToString(image),
		MimeType:  mimeType,
		Inventory: entries,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/invoice/scan", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var draft domain.InvoiceDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return nil, fmt.Errorf("ocr: malformed response: %w", err)
	}
	for i, item := range draft.Items {
		if item.Name == "" || item.Qty <= 0 {
			return nil, fmt.Errorf("ocr: invalid line %d in response", i)
		}
	}
	return &draft, nil
}
