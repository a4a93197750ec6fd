// Package remote talks to the product's REST API: accounts, preferences,
// projects and tags. It backs the shell when the server runs in remote mode.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fastcode/fastshell/internal/infrastructure/resilience"
	"github.com/fastcode/fastshell/internal/shell/collab"
)

// ErrUnauthorized is returned for a 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RetryMax  int
	RateLimit float64 // requests per second, zero means unlimited
	Logger    *zap.Logger
}

// Client wraps resty with rate limiting and a circuit breaker.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	log     *zap.Logger
}

// apiError is the error body the API returns.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// NewClient creates a client for the API at cfg.BaseURL.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "fastshell/1.0").
		SetHeader("Accept", "application/json")

	log := cfg.Logger.Named("remote")
	breaker := resilience.New("remote-api", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejections mean the API is up and answering.
		IsFailure: func(err error) bool {
			var ce *collab.Error
			return err != nil && !errors.As(err, &ce) && !errors.Is(err, ErrUnauthorized)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	return &Client{
		Resty:   restyClient,
		Limiter: limiter,
		Breaker: breaker,
		log:     log,
	}
}

// call describes one API request.
type call struct {
	op     string
	method string
	path   string
	token  string
	query  map[string]string
	body   any
	out    any
}

// do runs c through the limiter and breaker. 4xx answers become
// user-facing rejections carrying the API's message.
func (c *Client) do(ctx context.Context, rc call) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", rc.op, err)
	}

	err := c.Breaker.Do(ctx, func(ctx context.Context) error {
		req := c.Resty.R().SetContext(ctx).SetError(&apiError{})
		if rc.token != "" {
			req.SetAuthToken(rc.token)
		}
		if rc.query != nil {
			req.SetQueryParams(rc.query)
		}
		if rc.body != nil {
			req.SetBody(rc.body)
		}
		if rc.out != nil {
			req.SetResult(rc.out)
		}

		resp, err := req.Execute(rc.method, rc.path)
		if err != nil {
			return fmt.Errorf("%s: %w", rc.op, err)
		}
		return statusError(rc.op, resp)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.log.Debug("request short-circuited", zap.String("op", rc.op))
		return fmt.Errorf("%s: backend unavailable: %w", rc.op, err)
	}
	return err
}

func statusError(op string, resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case code < 500:
		msg := ""
		if e, ok := resp.Error().(*apiError); ok {
			msg = e.text()
		}
		if msg == "" {
			msg = http.StatusText(code)
		}
		return collab.Reject(op, msg)
	default:
		return fmt.Errorf("%s: server returned %d", op, code)
	}
}
