package client

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

	"github.com/cppla/focusstreak/models"
	"github.com/cppla/focusstreak/streak"
)

// DefaultTimeout bounds every call to the Record Store API.
const DefaultTimeout = 5 * time.Second

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("streak api: status %d", e.Code)
	}
	return fmt.Sprintf("streak api: status %d: %s", e.Code, e.Message)
}

// ServerConfig is the body of GET /api/config.
type ServerConfig struct {
	DefaultGoal int   `json:"defaultGoal"`
	GoalOptions []int `json:"goalOptions"`
}

// RemoteRepo talks to the Record Store HTTP API.
type RemoteRepo struct {
	baseURL string
	token   string
	http    *http.Client
}

type RemoteOption func(*RemoteRepo)

// WithHTTPClient replaces the default client (DefaultTimeout).
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteRepo) { r.http = c }
}

// WithToken sends a bearer identity token with every request.
func WithToken(token string) RemoteOption {
	return func(r *RemoteRepo) { r.token = token }
}

func NewRemoteRepo(baseURL string, opts ...RemoteOption) *RemoteRepo {
	r := &RemoteRepo{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RemoteRepo) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	return req, nil
}

// do executes req and decodes a 2xx JSON body into out.
func (r *RemoteRepo) do(req *http.Request, out any) error {
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		return &StatusError{Code: resp.StatusCode, Message: body.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// Get fetches the stored record. A 404 maps to streak.ErrNotFound.
func (r *RemoteRepo) Get(ctx context.Context, userID string) (*models.StreakRecord, error) {
	req, err := r.newRequest(ctx, http.MethodGet, "/api/streak?userId="+url.QueryEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	var rec models.StreakRecord
	if err := r.do(req, &rec); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, streak.ErrNotFound
		}
		return nil, err
	}
	if rec.UserID == "" {
		rec.UserID = userID
	}
	return &rec, nil
}

// Put uploads every field of rec. The returned copy carries the updatedAt
// the server stamped.
func (r *RemoteRepo) Put(ctx context.Context, rec models.StreakRecord) (models.StreakRecord, error) {
	b, err := json.Marshal(models.PatchFromRecord(rec))
	if err != nil {
		return rec, err
	}
	req, err := r.newRequest(ctx, http.MethodPost, "/api/streak", bytes.NewReader(b))
	if err != nil {
		return rec, err
	}
	var ack struct {
		OK        bool      `json:"ok"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := r.do(req, &ack); err != nil {
		return rec, err
	}
	if !ack.OK {
		return rec, errors.New("streak api: write not acknowledged")
	}
	out := rec.Clone()
	if !ack.UpdatedAt.IsZero() {
		out.UpdatedAt = ack.UpdatedAt.UTC()
	}
	return out, nil
}

// Config fetches the goal settings advertised by the server.
func (r *RemoteRepo) Config(ctx context.Context) (ServerConfig, error) {
	var cfg ServerConfig
	req, err := r.newRequest(ctx, http.MethodGet, "/api/config", nil)
	if err != nil {
		return cfg, err
	}
	err = r.do(req, &cfg)
	return cfg, err
}
