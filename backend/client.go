// Package backend implements the task backend's HTTP API: a Client used by
// every front end and a Server that serves the same endpoints over SQL.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	internalstrings "github.com/amonks/taskboard/internal/strings"
	"github.com/amonks/taskboard/task"
)

// Client calls the task backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the given address or URL.
func NewClient(addr string) *Client {
	return NewClientWithHTTP(addr, &http.Client{})
}

// NewClientWithHTTP creates a client that sends requests through httpClient.
func NewClientWithHTTP(addr string, httpClient *http.Client) *Client {
	baseURL := internalstrings.TrimTrailingSlash(strings.TrimSpace(addr))
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, client: httpClient}
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts credentials and returns the response payload verbatim.
func (c *Client) Login(ctx context.Context, email, password, username string) (json.RawMessage, error) {
	var response json.RawMessage
	request := loginRequest{Email: email, Password: password, Username: username}
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, request, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// Register creates an account and returns the response payload verbatim.
func (c *Client) Register(ctx context.Context, username, email, password string) (json.RawMessage, error) {
	var response json.RawMessage
	request := registerRequest{Username: username, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/register", nil, request, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// ListTasks returns every task owned by userID in server order.
func (c *Client) ListTasks(ctx context.Context, userID int64) ([]task.Task, error) {
	var tasks []task.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", userQuery(userID), nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// User returns the account with the given id.
func (c *Client) User(ctx context.Context, userID int64) (task.User, error) {
	var user task.User
	if err := c.do(ctx, http.MethodGet, "/api/user/"+formatID(userID), nil, nil, &user); err != nil {
		return task.User{}, err
	}
	return user, nil
}

// CreateTask creates a task from record.
func (c *Client) CreateTask(ctx context.Context, record task.Record) (task.Task, error) {
	var created task.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", nil, record, &created); err != nil {
		return task.Task{}, err
	}
	return created, nil
}

// UpdateTask replaces every field of task id with record.
func (c *Client) UpdateTask(ctx context.Context, id int64, record task.Record) (task.Task, error) {
	var updated task.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+formatID(id), nil, record, &updated); err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

// DeleteTask deletes task id owned by userID.
func (c *Client) DeleteTask(ctx context.Context, id, userID int64) error {
	var response messageResponse
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+formatID(id), userQuery(userID), nil, &response)
}

// DBStatus reports whether the backend can reach its database.
func (c *Client) DBStatus(ctx context.Context) (DBStatus, error) {
	var status DBStatus
	if err := c.do(ctx, http.MethodGet, "/api/db-status", nil, nil, &status); err != nil {
		return DBStatus{}, err
	}
	return status, nil
}

// Ping calls the root endpoint and returns its message.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var response messageResponse
	if err := c.do(ctx, http.MethodGet, "/", nil, nil, &response); err != nil {
		return "", err
	}
	return response.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, dest any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readErrorResponse(resp)
	}
	if dest == nil {
		return nil
	}
	if raw, ok := dest.(*json.RawMessage); ok {
		// Raw payloads are handed back undecoded; callers validate them.
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s %s: %w", method, path, err)
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func userQuery(userID int64) url.Values {
	return url.Values{"user_id": []string{formatID(userID)}}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
