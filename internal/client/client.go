// Package client is a typed HTTP client for the todo server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/colonyops/todod/internal/core/todo"
)

// DefaultBaseURL points at the server's default listen address.
const DefaultBaseURL = "http://127.0.0.1:8000"

// notFoundBody is the server's 404 reply for an unknown todo id.
const notFoundBody = "Todo not found"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL. A nil httpClient uses a
// client with a 10 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Greeting fetches the index message.
func (c *Client) Greeting(ctx context.Context) (string, error) {
	return c.text(ctx, http.MethodGet, "/", nil)
}

// List returns all todo items in display order.
func (c *Client) List(ctx context.Context) ([]todo.Item, error) {
	resp, err := c.do(ctx, http.MethodGet, "/getTodos", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var items []todo.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}
	return items, nil
}

// Add creates a todo item with the given text.
func (c *Client) Add(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"todo": text})
	if err != nil {
		return fmt.Errorf("encode todo: %w", err)
	}
	_, err = c.text(ctx, http.MethodPost, "/addTodo", body)
	return err
}

// Toggle flips the completion flag of an item. Returns todo.ErrNotFound if
// the server has no such item.
func (c *Client) Toggle(ctx context.Context, id uint32) error {
	_, err := c.text(ctx, http.MethodPut, "/updateTodo/"+strconv.FormatUint(uint64(id), 10), nil)
	return missingTodo(err)
}

// Remove deletes an item. Returns todo.ErrNotFound if the server has no such item.
func (c *Client) Remove(ctx context.Context, id uint32) error {
	_, err := c.text(ctx, http.MethodDelete, "/deleteTodo/"+strconv.FormatUint(uint64(id), 10), nil)
	return missingTodo(err)
}

// missingTodo maps the server's "Todo not found" reply to todo.ErrNotFound.
// Any other 404, such as a wrong base URL, stays a *StatusError.
func missingTodo(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound && statusErr.Body == notFoundBody {
		return fmt.Errorf("%w: %w", todo.ErrNotFound, err)
	}
	return err
}

func (c *Client) text(ctx context.Context, method, path string, body []byte) (string, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(b), nil
}

// do sends the request and turns non-2xx statuses into *StatusError. On
// success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() { _ = resp.Body.Close() }()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}
