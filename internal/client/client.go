// Package client is a typed HTTP client for the campus-connect REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/models"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	return &Client{
		base:  u,
		token: cfg.Token,
		http:  &http.Client{Transport: tr, Timeout: cfg.Timeout},
	}, nil
}

// do sends one request. Non-2xx replies are decoded from the
// {"error","code"} envelope into an *apperr.Error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, r)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindInternal, "decode response", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var env struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &env)

	kind := apperr.Kind(env.Code)
	if env.Code == "" {
		kind = kindForStatus(resp.StatusCode)
	}
	msg := env.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return apperr.New(kind, msg)
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusUnauthorized:
		return apperr.KindUnauthenticated
	case http.StatusForbidden:
		return apperr.KindForbidden
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusBadRequest:
		return apperr.KindInvalidInput
	case http.StatusTooManyRequests:
		return apperr.KindRateLimited
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return apperr.KindUnavailable
	}
	return apperr.KindInternal
}

func seg(s string) string { return url.PathEscape(s) }

func (c *Client) ListThreads(ctx context.Context) ([]models.ThreadSummary, error) {
	var out []models.ThreadSummary
	return out, c.do(ctx, http.MethodGet, "/chats", nil, &out)
}

func (c *Client) GetOrCreateThread(ctx context.Context, userID string) (*models.Thread, error) {
	var out models.Thread
	if err := c.do(ctx, http.MethodGet, "/chat/"+seg(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMessages(ctx context.Context, threadID string) (*models.Thread, error) {
	var out models.Thread
	if err := c.do(ctx, http.MethodGet, "/chat/"+seg(threadID)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, threadID, content string) (*models.Thread, error) {
	var out models.Thread
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/chat/"+seg(threadID)+"/message", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]models.GroupChat, error) {
	var out []models.GroupChat
	return out, c.do(ctx, http.MethodGet, "/group-chats", nil, &out)
}

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	ClubID      string   `json:"club_id,omitempty"`
	Members     []string `json:"members,omitempty"`
}

func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) (*models.GroupChat, error) {
	var out models.GroupChat
	if err := c.do(ctx, http.MethodPost, "/group-chats", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListGroupMessages(ctx context.Context, groupID string) ([]models.Message, error) {
	var out []models.Message
	return out, c.do(ctx, http.MethodGet, "/group-chats/"+seg(groupID)+"/messages", nil, &out)
}

func (c *Client) PostGroupMessage(ctx context.Context, groupID, content string) (*models.Message, error) {
	var out models.Message
	body := map[string]string{"message": content}
	if err := c.do(ctx, http.MethodPost, "/group-chats/"+seg(groupID)+"/messages", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	return out, c.do(ctx, http.MethodGet, "/notifications/"+seg(userID), nil, &out)
}

func (c *Client) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	var out models.Notification
	if err := c.do(ctx, http.MethodPut, "/notifications/"+seg(id)+"/read", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkAllRead(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPut, "/notifications/user/"+seg(userID)+"/read-all", nil, nil)
}

func (c *Client) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/"+seg(userID)+"/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
