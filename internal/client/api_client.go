package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/worklink/internal/domain/chat"
	"github.com/geocoder89/worklink/internal/domain/connection"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/google/uuid"
)

// APIError is the decoded error body of a non-2xx response.
type APIError struct {
	Status    int            `json:"-"`
	Message   string         `json:"message"`
	Code      string         `json:"code"`
	RequestID string         `json:"requestId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      user.Public `json:"user"`
}

// APIClient talks to the REST API. It is safe for concurrent use.
type APIClient struct {
	baseURL string
	hc      *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPIClient(baseURL string, hc *http.Client) *APIClient {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login stores the returned token for later calls.
func (c *APIClient) Login(ctx context.Context, email, password string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", user.LoginRequest{Email: email, Password: password}, &s)
	if err != nil {
		return Session{}, err
	}
	c.SetToken(s.Token)
	return s, nil
}

func (c *APIClient) Me(ctx context.Context) (user.User, error) {
	var u user.User
	err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &u)
	return u, err
}

func (c *APIClient) ListWorkPosts(ctx context.Context, mine bool) ([]workpost.WorkPost, error) {
	path := "/api/work-posts"
	if mine {
		path += "?mine=true"
	}
	var out listResponse[workpost.WorkPost]
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *APIClient) Apply(ctx context.Context, workPostID string) (connection.Request, error) {
	var out connection.Request
	err := c.do(ctx, http.MethodPost, "/api/connection-requests", connection.CreateRequest{WorkPostID: workPostID}, &out)
	return out, err
}

func (c *APIClient) ListConnectionRequests(ctx context.Context) ([]connection.Request, error) {
	var out listResponse[connection.Request]
	if err := c.do(ctx, http.MethodGet, "/api/connection-requests", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *APIClient) DecideConnectionRequest(ctx context.Context, id string, status connection.Status) (connection.Request, error) {
	var out connection.Request
	err := c.do(ctx, http.MethodPut, "/api/connection-requests/"+url.PathEscape(id), connection.UpdateRequest{Status: status}, &out)
	return out, err
}

func (c *APIClient) ListChats(ctx context.Context) ([]chat.Summary, error) {
	var out listResponse[chat.Summary]
	if err := c.do(ctx, http.MethodGet, "/api/chats", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

type messagesResponse struct {
	ChatID     string         `json:"chatId"`
	Items      []chat.Message `json:"items"`
	Count      int            `json:"count"`
	NextCursor string         `json:"nextCursor"`
}

// Messages returns the messages after the opaque cursor and the cursor to
// pass next time.
func (c *APIClient) Messages(ctx context.Context, chatID, after string) ([]chat.Message, string, error) {
	path := "/api/chats/" + url.PathEscape(chatID)
	if after != "" {
		path += "?after=" + url.QueryEscape(after)
	}
	var out messagesResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, "", err
	}
	return out.Items, out.NextCursor, nil
}

func (c *APIClient) SendMessage(ctx context.Context, chatID, receiverID, text string) (chat.Message, error) {
	var out chat.Message
	err := c.do(ctx, http.MethodPost, "/api/chats/"+url.PathEscape(chatID), chat.SendRequest{Message: text, ReceiverID: receiverID}, &out)
	return out, err
}

func (c *APIClient) MarkRead(ctx context.Context, chatID string) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	err := c.do(ctx, http.MethodPost, "/api/chats/"+url.PathEscape(chatID)+"/read", nil, &out)
	return out.Updated, err
}

// ChatIDs and Since make APIClient a MessageSource.
func (c *APIClient) ChatIDs(ctx context.Context) ([]string, error) {
	chats, err := c.ListChats(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(chats))
	for _, ch := range chats {
		ids = append(ids, ch.ChatID)
	}
	return ids, nil
}

func (c *APIClient) Since(ctx context.Context, chatID, cursor string) (Batch, error) {
	msgs, next, err := c.Messages(ctx, chatID, cursor)
	if err != nil {
		return Batch{}, err
	}
	return Batch{Messages: msgs, Next: next}, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
		}
		if apiErr.RequestID == "" {
			apiErr.RequestID = resp.Header.Get("X-Request-Id")
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
