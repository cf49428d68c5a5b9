package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var errNotFoundStatus = errors.New("directory returned 404")

// HTTPDirectory calls a remote user directory. Calls go through a circuit
// breaker so a failing directory is not hammered by every request.
type HTTPDirectory struct {
	client  *http.Client
	baseURL string
	cb      *gobreaker.CircuitBreaker
}

// NewHTTPDirectory new HTTPDirectory
func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	settings := gobreaker.Settings{
		Name:        "User-Directory",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is at least 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			// A missing user is an answer, not a directory failure.
			return err == nil || errors.Is(err, errNotFoundStatus)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &HTTPDirectory{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// ListAll fetches GET {base}/users.
func (d *HTTPDirectory) ListAll(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	if err := d.call(ctx, "/users", &employees); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return employees, nil
}

// Get fetches GET {base}/users/{id}.
func (d *HTTPDirectory) Get(ctx context.Context, id string) (*model.Employee, error) {
	var e model.Employee
	err := d.call(ctx, "/users/"+url.PathEscape(id), &e)
	if errors.Is(err, errNotFoundStatus) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &e, nil
}

func (d *HTTPDirectory) call(ctx context.Context, path string, out any) error {
	_, err := d.cb.Execute(func() (interface{}, error) {
		return nil, d.get(ctx, path, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", model.ErrUnavailable, err)
	}
	return err
}

func (d *HTTPDirectory) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to call directory: %w", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFoundStatus
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: directory returned status code %d", model.ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("directory returned non-successful status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode directory response: %w", err)
	}
	return nil
}
