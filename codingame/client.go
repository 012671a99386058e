// Package codingame contains minimal helpers to interact with the CodinGame
// services API for Clash of Code lobby management, using a rememberMe session
// cookie.
package codingame

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

const defaultBaseURL = "https://www.codingame.com/services/"

var (
	// ErrCatalogUnavailable indicates the language id list could not be fetched
	// or parsed. The caller decides whether this is fatal.
	ErrCatalogUnavailable = errors.New("language catalog unavailable")
	// ErrClashCreation indicates the create call returned no usable handle.
	// This usually means the session cookie expired or the service is down.
	ErrClashCreation = errors.New("clash creation failed")
)

// Client provides the four operations needed for lobby management. Every call
// is an HTTPS POST with a positional JSON parameter array and the session
// cookie; the endpoint paths and parameter order match the live service.
type Client struct {
	Cookie     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client authenticated with the given rememberMe cookie.
func NewClient(cookie string) *Client {
	return &Client{Cookie: cookie, BaseURL: defaultBaseURL}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

// UserID is the account id embedded in the session cookie (its first seven
// characters), sent as the owner on create and leave calls.
func (c *Client) UserID() string {
	if len(c.Cookie) < 7 {
		return c.Cookie
	}
	return c.Cookie[:7]
}

// lobby mirrors the subset of the remote lobby object the bot reads.
type lobby struct {
	PublicHandle string `json:"publicHandle"`
	Players      []struct {
		CodingamerID       int    `json:"codingamerId"`
		CodingamerNickname string `json:"codingamerNickname"`
		Status             string `json:"status"`
	} `json:"players"`
	Modes                []string `json:"modes"`
	ProgrammingLanguages []string `json:"programmingLanguages"`
	Started              bool     `json:"started"`
	Finished             bool     `json:"finished"`
}

// LanguageIDs fetches the ordered list of supported programming language
// identifiers.
func (c *Client) LanguageIDs(ctx context.Context) ([]string, error) {
	resp, err := c.post(ctx, "ProgrammingLanguage/FindAllIds", []any{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer closeBody(resp)
	var ids []string
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrCatalogUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrCatalogUnavailable)
	}
	return ids, nil
}

// CreateClash opens a private lobby owned by the bot account and returns its
// public handle. languages must be empty (no restriction) or a single
// identifier; modes must be the already-expanded, non-sentinel mode set.
func (c *Client) CreateClash(ctx context.Context, modes, languages []string) (string, error) {
	if len(modes) == 0 {
		return "", fmt.Errorf("%w: no modes", ErrClashCreation)
	}
	if languages == nil {
		languages = []string{}
	}
	resp, err := c.post(ctx, "ClashOfCode/CreatePrivateClash", []any{c.UserID(), languages, modes})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClashCreation, err)
	}
	defer closeBody(resp)
	var result lobby
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrClashCreation, err)
	}
	if result.PublicHandle == "" {
		return "", fmt.Errorf("%w: empty handle", ErrClashCreation)
	}
	return result.PublicHandle, nil
}

// PlayerCount reads the current participant count of a lobby. A handle the
// service no longer recognizes yields 0, not an error, so the polling loop
// survives expired lobbies. Transport failures are returned for the caller to
// log and retry on its next tick.
func (c *Client) PlayerCount(ctx context.Context, handle string) (int, error) {
	resp, err := c.post(ctx, "ClashOfCode/FindClashByHandle", []any{handle})
	if err != nil {
		return 0, err
	}
	defer closeBody(resp)
	var result lobby
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, nil
	}
	return len(result.Players), nil
}

// LeaveClash removes the bot account from a lobby. The response body is not
// consumed; cleanup is best-effort.
func (c *Client) LeaveClash(ctx context.Context, handle string) error {
	resp, err := c.post(ctx, "ClashOfCode/LeaveClashByHandle", []any{c.UserID(), handle})
	if err != nil {
		return err
	}
	closeBody(resp)
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, params []any) (*http.Response, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("cookie", "rememberMe="+c.Cookie)
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	return c.http().Do(req)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}
