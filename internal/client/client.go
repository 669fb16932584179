// Package client is a typed wrapper over the PepperBot REST contract.
// The session rides in an http cookie jar; transport-level timeouts
// live here, not in the callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"pepperbot/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}

// Client talks to the PepperBot backend. Safe for sequential use from
// a single view; views do not share clients.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client with a fresh cookie jar.
func New(baseURL string, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: u,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// ListPatch is a partial shopping list update. Nil means "leave as is".
type ListPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ItemPatch is a partial list item update. Nil means "leave as is".
type ItemPatch struct {
	Name        *string  `json:"name,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
	IsCompleted *bool    `json:"is_completed,omitempty"`
}

// NewItem is the add-item payload.
type NewItem struct {
	Name        string   `json:"name"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
	IsCompleted *bool    `json:"is_completed,omitempty"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var user domain.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and stores the session cookie on the jar.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/login", nil, body, nil)
}

// Logout clears the server-side session cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Lists fetches the caller's shopping lists.
func (c *Client) Lists(ctx context.Context, skip, limit int) ([]domain.ShoppingList, error) {
	lists := []domain.ShoppingList{}
	if err := c.do(ctx, http.MethodGet, "/lists", pageQuery(skip, limit), nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// CreateList creates a shopping list.
func (c *Client) CreateList(ctx context.Context, title string, description *string) (*domain.ShoppingList, error) {
	body := map[string]interface{}{"title": title}
	if description != nil {
		body["description"] = *description
	}
	var list domain.ShoppingList
	if err := c.do(ctx, http.MethodPost, "/lists", nil, body, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// List fetches one shopping list by id.
func (c *Client) List(ctx context.Context, id uuid.UUID) (*domain.ShoppingList, error) {
	var list domain.ShoppingList
	if err := c.do(ctx, http.MethodGet, "/lists/"+id.String(), nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateList applies a partial update to a shopping list.
func (c *Client) UpdateList(ctx context.Context, id uuid.UUID, patch ListPatch) (*domain.ShoppingList, error) {
	var list domain.ShoppingList
	if err := c.do(ctx, http.MethodPut, "/lists/"+id.String(), nil, patch, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteList deletes a shopping list and, server-side, its items.
func (c *Client) DeleteList(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/lists/"+id.String(), nil, nil, nil)
}

// Items fetches the items of a shopping list.
func (c *Client) Items(ctx context.Context, listID uuid.UUID) ([]domain.ListItem, error) {
	items := []domain.ListItem{}
	if err := c.do(ctx, http.MethodGet, "/lists/"+listID.String()+"/items", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem adds an item to a shopping list.
func (c *Client) CreateItem(ctx context.Context, listID uuid.UUID, item NewItem) (*domain.ListItem, error) {
	var created domain.ListItem
	if err := c.do(ctx, http.MethodPost, "/lists/"+listID.String()+"/items", nil, item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateItem applies a partial update to a list item.
func (c *Client) UpdateItem(ctx context.Context, listID, itemID uuid.UUID, patch ItemPatch) (*domain.ListItem, error) {
	var updated domain.ListItem
	path := "/lists/" + listID.String() + "/items/" + itemID.String()
	if err := c.do(ctx, http.MethodPut, path, nil, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteItem removes a single list item.
func (c *Client) DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error {
	path := "/lists/" + listID.String() + "/items/" + itemID.String()
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Discounts fetches discounts, optionally filtered by store substring.
func (c *Client) Discounts(ctx context.Context, store string, skip, limit int) ([]domain.Discount, error) {
	q := pageQuery(skip, limit)
	if store != "" {
		q.Set("store", store)
	}
	discounts := []domain.Discount{}
	if err := c.do(ctx, http.MethodGet, "/discounts", q, nil, &discounts); err != nil {
		return nil, err
	}
	return discounts, nil
}

// Notifications fetches the caller's notifications.
func (c *Client) Notifications(ctx context.Context, unreadOnly bool, skip, limit int) ([]domain.Notification, error) {
	q := pageQuery(skip, limit)
	if unreadOnly {
		q.Set("unread_only", "true")
	}
	notifications := []domain.Notification{}
	if err := c.do(ctx, http.MethodGet, "/notifications", q, nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead flags a notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPut, "/notifications/"+id.String()+"/read", nil, nil, nil)
}

// DeleteNotification removes a notification.
func (c *Client) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+id.String(), nil, nil, nil)
}

func pageQuery(skip, limit int) url.Values {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	// JoinPath keeps any prefix on the configured base URL intact.
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}

		// Session expiry is logged and surfaced; no automatic redirect.
		if resp.StatusCode == http.StatusUnauthorized {
			c.logger.Warn("Session rejected by backend",
				zap.String("method", method),
				zap.String("path", path),
			)
		}

		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func errorMessage(body io.Reader) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil || envelope.Error.Message == "" {
		return "request failed"
	}
	return envelope.Error.Message
}
