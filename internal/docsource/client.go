// Package docsource предоставляет клиент ленты изменений хостингового документного хранилища.
package docsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client инкапсулирует HTTP-взаимодействие с документным хранилищем.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Change описывает изменённый документ коллекции.
type Change struct {
	ID      string          `json:"id"`
	Data    json.RawMessage `json:"data"`
	Deleted bool            `json:"deleted,omitempty"`
}

// ChangeSet содержит порцию ленты изменений. Next передаётся в следующий запрос.
type ChangeSet struct {
	Documents []Change `json:"documents"`
	Next      string   `json:"next"`
}

// NewClient создаёт HTTP-клиент для обращения к хранилищу по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchChanges запрашивает документы коллекции, изменённые после позиции since.
// При ответе 429 возвращает nil и рекомендованную паузу из Retry-After.
// При ответе 204 возвращает пустую порцию с прежней позицией.
func (c *Client) FetchChanges(ctx context.Context, collection, since string) (*ChangeSet, time.Duration, error) {
	if c == nil || c.baseURL == "" {
		return nil, 0, fmt.Errorf("document source not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	u := fmt.Sprintf("%s/api/collections/%s/changes", base, url.PathEscape(collection))
	if since != "" {
		u += "?since=" + url.QueryEscape(since)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return nil, retryAfter(resp.Header.Get("Retry-After")), nil
	case http.StatusNoContent:
		return &ChangeSet{Documents: []Change{}, Next: since}, 0, nil
	case http.StatusOK:
	default:
		return nil, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result ChangeSet
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	if result.Next == "" {
		result.Next = since
	}

	return &result, 0, nil
}

// retryAfter разбирает Retry-After в секундах или в формате HTTP-даты.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
