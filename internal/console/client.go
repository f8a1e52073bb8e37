package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adspace/internal/domain"
	"adspace/internal/messaging"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
)

const (
	defaultTimeout = 15 * time.Second
	readAttempts   = 3
	readDelay      = 300 * time.Millisecond
)

// errTransport marks failures to reach the API at all.
var errTransport = errors.New("api unreachable")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Name    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Name, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// LoginResult is the API's answer to a successful sign-in.
type LoginResult struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Client calls the admin API on behalf of a session.
type Client struct {
	http    *http.Client
	session Session
}

// NewClient returns a client for sess. A nil hc gets a client with a
// default timeout.
func NewClient(sess Session, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	sess.BaseURL = strings.TrimRight(sess.BaseURL, "/")
	return &Client{http: hc, session: sess}
}

// Session returns the session the client acts for.
func (c *Client) Session() Session { return c.session }

// Login signs in and returns the new session. The client adopts it.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var res LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &res); err != nil {
		return Session{}, err
	}
	c.session = Session{BaseURL: c.session.BaseURL, Token: res.Token, Role: res.Role, Email: res.Email}
	return c.session, nil
}

func (c *Client) Inquiries(ctx context.Context) ([]domain.Inquiry, error) {
	var out []domain.Inquiry
	if err := c.get(ctx, "/contact/inquiries", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Inquiry(ctx context.Context, id string) (*domain.Inquiry, error) {
	var out domain.Inquiry
	if err := c.get(ctx, "/contact/inquiries/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// View opens an inquiry, marking it read when it was unread.
func (c *Client) View(ctx context.Context, id string) (*domain.Inquiry, error) {
	return c.inquiryAction(ctx, http.MethodPost, id, "view", nil)
}

func (c *Client) UpdateStatus(ctx context.Context, id, status string) (*domain.Inquiry, error) {
	return c.inquiryAction(ctx, http.MethodPatch, id, "status", map[string]string{"status": status})
}

func (c *Client) AddNote(ctx context.Context, id, content string) (*domain.Inquiry, error) {
	return c.inquiryAction(ctx, http.MethodPost, id, "notes", map[string]string{"content": content})
}

func (c *Client) Forward(ctx context.Context, id, email string) (*domain.Inquiry, error) {
	return c.inquiryAction(ctx, http.MethodPost, id, "forward", map[string]string{"forwardingEmail": email})
}

func (c *Client) Jobs(ctx context.Context) ([]domain.Job, error) {
	var out []domain.Job
	if err := c.get(ctx, "/jobs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Blogs(ctx context.Context) ([]domain.Blog, error) {
	var out []domain.Blog
	if err := c.get(ctx, "/blogs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MessagingStatus(ctx context.Context) (*messaging.Status, error) {
	var out messaging.Status
	if err := c.get(ctx, "/messaging/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) inquiryAction(ctx context.Context, method, id, action string, body any) (*domain.Inquiry, error) {
	var out domain.Inquiry
	path := "/contact/inquiries/" + url.PathEscape(id) + "/" + action
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get retries transport failures and 5xx answers. Client errors are final.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return retry.Do(
		func() error { return c.do(ctx, http.MethodGet, path, nil, out) },
		retry.Context(ctx),
		retry.Attempts(readAttempts),
		retry.Delay(readDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status >= http.StatusInternalServerError
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			return errors.Is(err, errTransport)
		}),
	)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.session.BaseURL == "" {
		return errors.New("no API base URL configured")
	}

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.session.BaseURL+path, rd)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "%s %s", method, path), errTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&eb) == nil {
			apiErr.Name, apiErr.Message = eb.Name, eb.Message
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decode %s %s", method, path)
}
