// Package api is a small typed client for the gophtodo HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// ErrUnavailable means the server could not be reached at all.
var ErrUnavailable = errors.New("server unavailable")

// Error is a non-2xx answer from the server.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

// Unwrap maps the status back onto the shared sentinels.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return common.ErrorUnauthenticated
	case http.StatusForbidden:
		return common.ErrorForbidden
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusConflict:
		return common.ErrorConflict
	case http.StatusBadRequest:
		return common.ErrorInvalidArgument
	}
	return common.ErrorInternal
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var d struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&d)
		if d.Detail == "" {
			d.Detail = resp.Status
		}
		return &Error{Status: resp.StatusCode, Detail: d.Detail}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) Register(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/users", map[string]string{"username": username, "password": password}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login authenticates and remembers the token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*models.Session, error) {
	var s models.Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": password}, &s); err != nil {
		return nil, err
	}
	c.token = s.AccessToken
	return &s, nil
}

type ChatReply struct {
	AgentResponse string `json:"agent_response"`
	MessageID     string `json:"message_id"`
}

func (c *Client) Chat(ctx context.Context, message string) (*ChatReply, error) {
	var r ChatReply
	if err := c.do(ctx, http.MethodPost, "/chat", map[string]string{"message": message}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) History(ctx context.Context) ([]*models.Message, error) {
	var msgs []*models.Message
	if err := c.do(ctx, http.MethodGet, "/chat/history", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListTasks lists one status bucket; empty arguments use server defaults.
func (c *Client) ListTasks(ctx context.Context, status, targetDate string) ([]*models.Task, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if targetDate != "" {
		q.Set("target_date", targetDate)
	}
	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var tasks []*models.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) Counts(ctx context.Context, targetDate string) (*models.TaskStatusCounts, error) {
	path := "/tasks/counts"
	if targetDate != "" {
		path += "?" + url.Values{"target_date": {targetDate}}.Encode()
	}

	var counts models.TaskStatusCounts
	if err := c.do(ctx, http.MethodGet, path, nil, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (c *Client) MarkBacklog(ctx context.Context) (string, error) {
	var r struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/tasks/auto-mark-backlog", nil, &r); err != nil {
		return "", err
	}
	return r.Message, nil
}
