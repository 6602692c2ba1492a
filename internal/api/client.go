// Package api talks to the remote notes service over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 1 << 20

// Client issues requests against the notes service base path (".../api").
// It holds no credentials; callers pass them per request.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// New creates a Client. A nil httpClient gets a client without a timeout.
func New(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

// Register handles POST /auth/register
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := registerInput{Username: username, Password: password}
	return c.do(ctx, http.MethodPost, "/auth/register", nil, body, nil)
}

// ListNotes handles GET /notes
func (c *Client) ListNotes(ctx context.Context, cred Credentials) ([]Note, error) {
	var notes []Note
	if err := c.do(ctx, http.MethodGet, "/notes", &cred, nil, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

// CreateNote handles POST /notes
func (c *Client) CreateNote(ctx context.Context, cred Credentials, input NoteInput) (*Note, error) {
	var note Note
	if err := c.do(ctx, http.MethodPost, "/notes", &cred, input, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote handles PUT /notes/{id}
func (c *Client) UpdateNote(ctx context.Context, cred Credentials, id int64, input NoteInput) error {
	return c.do(ctx, http.MethodPut, notePath(id), &cred, input, nil)
}

// DeleteNote handles DELETE /notes/{id}
func (c *Client) DeleteNote(ctx context.Context, cred Credentials, id int64) error {
	return c.do(ctx, http.MethodDelete, notePath(id), &cred, nil, nil)
}

func notePath(id int64) string {
	return "/notes/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, cred *Credentials, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if cred != nil {
		req.Header.Set("Authorization", cred.Header())
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("notes api unreachable",
			"method", method, "path", path, "request_id", requestID, "error", err)
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("notes api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(resp)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Method: method, Path: path, Err: err}
	}
	return nil
}

// errorMessage extracts {"message": ...} from an error response, falling
// back to the status text.
func errorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Message != "" {
			return eb.Message
		}
	}
	return statusText(resp.StatusCode)
}
