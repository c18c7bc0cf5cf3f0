// Package api is the HTTP client for the sync server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Notico/internal/cli/syncer"
	"Notico/internal/dto"
)

// AuthCookie — имя cookie с JWT, которое выставляет сервер.
const AuthCookie = "auth_token"

// ErrUnauthorized is returned on 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError — сервер ответил не-2xx кодом.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server status %d: %s", e.Code, e.Body)
}

// Client talks to the sync server on behalf of one user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ syncer.Remote = (*Client)(nil)

// NewClient creates a client; timeout bounds every request (0 = no limit
// besides the caller's context).
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken заменяет токен, например после login.
func (c *Client) SetToken(token string) { c.token = token }

// PostJSON sends a JSON POST request. If token is non-empty, it is passed as auth cookie.
func PostJSON(ctx context.Context, hc *http.Client, url string, payload any, token string) (*http.Response, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(hc, req, token)
}

func do(hc *http.Client, req *http.Request, token string) (*http.Response, []byte, error) {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: AuthCookie, Value: token})
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, body, nil
}

// TokenFromResponse извлекает auth cookie из ответа.
func TokenFromResponse(resp *http.Response) (string, error) {
	for _, c := range resp.Cookies() {
		if c.Name == AuthCookie && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("no auth cookie in response")
}

func checkStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, body, err := do(c.http, req, c.token)
	if err != nil {
		return err
	}
	if err := checkStatus(resp, body); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) (*http.Response, error) {
	resp, body, err := PostJSON(ctx, c.http, c.baseURL+path, payload, c.token)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, body); err != nil {
		return resp, err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp, nil
}

// Register создаёт пользователя и возвращает токен.
func (c *Client) Register(ctx context.Context, login, password string) (string, error) {
	return c.auth(ctx, "/api/user/register", login, password)
}

// Login возвращает токен для существующего пользователя.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	return c.auth(ctx, "/api/user/login", login, password)
}

func (c *Client) auth(ctx context.Context, path, login, password string) (string, error) {
	resp, err := c.postJSON(ctx, path, dto.Credentials{Login: login, Password: password}, nil)
	if err != nil {
		return "", err
	}
	token, err := TokenFromResponse(resp)
	if err != nil {
		return "", err
	}
	c.SetToken(token)
	return token, nil
}

// Me returns the current user with its plan.
func (c *Client) Me(ctx context.Context) (*dto.UserInfo, error) {
	var info dto.UserInfo
	if err := c.getJSON(ctx, "/api/user/me", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Sync posts one batch to /api/items/sync.
func (c *Client) Sync(ctx context.Context, req dto.SyncRequest) (*dto.SyncResponse, error) {
	var out dto.SyncResponse
	if _, err := c.postJSON(ctx, "/api/items/sync", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListItems returns every live item of the user.
func (c *Client) ListItems(ctx context.Context) ([]dto.Item, error) {
	var out []dto.Item
	if err := c.getJSON(ctx, "/api/items", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFolders returns every live folder of the user.
func (c *Client) ListFolders(ctx context.Context) ([]dto.Folder, error) {
	var out []dto.Folder
	if err := c.getJSON(ctx, "/api/folders", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.getJSON(ctx, "/healthz", nil)
}
