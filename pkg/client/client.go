// Package client is a typed HTTP client for the NoSmoke API. Progress reads
// are cached per (user, plan) and dropped whenever that pair is written.
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
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrPlanRequired is returned before any request is sent when a progress call
// has no plan id.
var ErrPlanRequired = errors.New("plan id is required")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	base  string
	http  *http.Client
	token string
	cache *expirable.LRU[string, []byte]
}

type Option func(*Client)

func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithCache sizes the read cache. size <= 0 disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, []byte](size, nil, ttl)
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: 15 * time.Second},
		cache: expirable.NewLRU[string, []byte](256, nil, time.Minute),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token returns the bearer token in use.
func (c *Client) Token() string { return c.token }

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, map[string]string{"email": email, "password": password}, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ActivePlan(ctx context.Context, userID string) (*Plan, error) {
	var out Plan
	if err := c.do(ctx, http.MethodGet, "/api/plans/user/"+url.PathEscape(userID)+"/active", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCheckin(ctx context.Context, userID, planID string, m Metrics) (*Checkin, error) {
	if planID == "" {
		return nil, ErrPlanRequired
	}
	var out Checkin
	err := c.do(ctx, http.MethodPost, "/api/progress/checkin/"+url.PathEscape(userID), planQuery(planID), m, &out)
	if err != nil {
		return nil, err
	}
	c.invalidate(userID, planID)
	return &out, nil
}

func (c *Client) UpdateCheckin(ctx context.Context, userID, planID, date string, m Metrics) (*Checkin, error) {
	if planID == "" {
		return nil, ErrPlanRequired
	}
	var out Checkin
	err := c.do(ctx, http.MethodPut, checkinPath(userID, date), planQuery(planID), m, &out)
	if err != nil {
		return nil, err
	}
	c.invalidate(userID, planID)
	return &out, nil
}

func (c *Client) DeleteCheckin(ctx context.Context, userID, planID, date string) error {
	if planID == "" {
		return ErrPlanRequired
	}
	if err := c.do(ctx, http.MethodDelete, checkinPath(userID, date), planQuery(planID), nil, nil); err != nil {
		return err
	}
	c.invalidate(userID, planID)
	return nil
}

func (c *Client) GetCheckin(ctx context.Context, userID, planID, date string) (*Checkin, error) {
	if planID == "" {
		return nil, ErrPlanRequired
	}
	var out Checkin
	if err := c.cached(ctx, userID, planID, checkinPath(userID, date), planQuery(planID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProgress(ctx context.Context, userID, planID string, q ProgressQuery) ([]Checkin, error) {
	if planID == "" {
		return nil, ErrPlanRequired
	}
	v := planQuery(planID)
	if q.Start != "" {
		v.Set("start", q.Start)
	}
	if q.End != "" {
		v.Set("end", q.End)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	var out []Checkin
	if err := c.cached(ctx, userID, planID, "/api/progress/user/"+url.PathEscape(userID), v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context, userID, planID string, days int) (*Stats, error) {
	if planID == "" {
		return nil, ErrPlanRequired
	}
	v := planQuery(planID)
	if days > 0 {
		v.Set("days", strconv.Itoa(days))
	}
	var out Stats
	if err := c.cached(ctx, userID, planID, "/api/progress/stats/"+url.PathEscape(userID), v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Availability(ctx context.Context, coachID, from, to string) ([]DayAvailability, error) {
	v := url.Values{}
	v.Set("from", from)
	if to != "" {
		v.Set("to", to)
	}
	var out []DayAvailability
	if err := c.do(ctx, http.MethodGet, "/api/coaches/"+url.PathEscape(coachID)+"/availability", v, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	var out Appointment
	if err := c.do(ctx, http.MethodPost, "/api/appointments", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func checkinPath(userID, date string) string {
	return "/api/progress/checkin/" + url.PathEscape(userID) + "/" + url.PathEscape(date)
}

func planQuery(planID string) url.Values {
	v := url.Values{}
	v.Set("plan_id", planID)
	return v
}

func scope(userID, planID string) string {
	return userID + "|" + planID + "|"
}

// cached serves GETs from the cache, filling it on a miss.
func (c *Client) cached(ctx context.Context, userID, planID, path string, q url.Values, out any) error {
	if c.cache == nil {
		return c.do(ctx, http.MethodGet, path, q, nil, out)
	}
	key := scope(userID, planID) + path + "?" + q.Encode()
	if raw, ok := c.cache.Get(key); ok {
		return json.Unmarshal(raw, out)
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
		return err
	}
	c.cache.Add(key, raw)
	return json.Unmarshal(raw, out)
}

func (c *Client) invalidate(userID, planID string) {
	if c.cache == nil {
		return
	}
	prefix := scope(userID, planID)
	for _, k := range c.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Remove(k)
		}
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
