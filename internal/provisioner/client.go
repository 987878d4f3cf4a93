// Package provisioner реализует клиента панели Hiddify, выдающей VPN-аккаунты.
package provisioner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

type Client struct {
	panelURL   string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент панели. panelURL указывается без
// завершающего слэша.
func NewClient(panelURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		panelURL:   strings.TrimRight(panelURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.panelURL + "/" + c.apiKey + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Hiddify-API-Key", c.apiKey)
	return req, nil
}

// CreateUser создаёт пользователя в панели и возвращает его UUID, который
// служит ключом доступа к подписке. Ошибки сети и неуспешные статусы
// оборачиваются в models.ErrUpstream.
func (c *Client) CreateUser(ctx context.Context, reqParams CreateUserRequest) (*CreateUserResponse, error) {
	const op = "provisioner.CreateUser"

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v2/admin/user/", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s: %w: unexpected status %s", op, models.ErrUpstream, resp.Status)
	}

	var userResp CreateUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrUpstream, err)
	}
	if userResp.UUID == "" {
		return nil, fmt.Errorf("%s: %w: empty uuid in response", op, models.ErrUpstream)
	}
	return &userResp, nil
}
