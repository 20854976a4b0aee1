package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Backoff returns the retry sleep duration for the given attempt number.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// Waiter gates an outbound call, typically a rate limiter.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Observer is notified once per attempt. status is 0 when no response was received.
type Observer func(endpoint, method string, status int, elapsed time.Duration)

// Request describes one JSON call. Body is marshalled once and re-sent on every attempt.
type Request struct {
	Method   string
	URL      string
	Endpoint string // low-cardinality label for logs and metrics, e.g. "quote"
	Body     any
	Header   http.Header
}

// Executor handles rate-limited, optionally retrying HTTP execution with JSON decoding.
type Executor struct {
	logger       *zap.Logger
	http         *http.Client
	retryMax     int
	tag          string
	errorHandler func(status int, body []byte) error
	observer     Observer
}

// New creates an Executor. errorHandler is called on 4xx and 5xx responses to
// produce an upstream-specific error; if nil, a generic error is returned.
// retryMax=0 means a single attempt.
func New(
	logger *zap.Logger,
	httpClient *http.Client,
	retryMax int,
	tag string,
	errorHandler func(status int, body []byte) error,
) *Executor {
	return &Executor{
		logger:       logger,
		http:         httpClient,
		retryMax:     retryMax,
		tag:          tag,
		errorHandler: errorHandler,
	}
}

// WithObserver registers a per-attempt observer and returns the executor.
func (e *Executor) WithObserver(o Observer) *Executor {
	e.observer = o
	return e
}

func (e *Executor) observe(r Request, status int, elapsed time.Duration) {
	if e.observer != nil {
		e.observer(r.Endpoint, r.Method, status, elapsed)
	}
}

// DoJSON waits on w (if any), executes r and JSON-decodes a 2xx body into out.
// 5xx responses and transport errors are retried up to retryMax times; 4xx never are.
func (e *Executor) DoJSON(ctx context.Context, w Waiter, r Request, out any) error {
	if w != nil {
		if err := w.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var payload []byte
	if r.Body != nil {
		var err error
		if payload, err = json.Marshal(r.Body); err != nil {
			return fmt.Errorf("%s: encode %s request: %w", e.tag, r.Endpoint, err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(Backoff(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		for k, vs := range r.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := e.http.Do(req)
		if err != nil {
			lastErr = err
			e.observe(r, 0, time.Since(start))
			e.logger.Warn(e.tag+".http_failed",
				zap.String("endpoint", r.Endpoint),
				zap.String("url", r.URL),
				zap.Error(err),
				zap.Int("attempt", attempt))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		elapsed := time.Since(start)
		e.observe(r, resp.StatusCode, elapsed)

		if readErr != nil {
			lastErr = fmt.Errorf("%s: read body: %w", e.tag, readErr)
			continue
		}

		if resp.StatusCode >= 500 {
			e.logger.Warn(e.tag+".server_error",
				zap.String("endpoint", r.Endpoint),
				zap.Int("status", resp.StatusCode),
				zap.String("url", r.URL),
				zap.Duration("latency", elapsed))
			if e.errorHandler != nil {
				lastErr = e.errorHandler(resp.StatusCode, body)
			} else {
				lastErr = fmt.Errorf("%s server error: %d", e.tag, resp.StatusCode)
			}
			continue
		}

		if resp.StatusCode >= 400 {
			if e.errorHandler != nil {
				return e.errorHandler(resp.StatusCode, body)
			}
			return fmt.Errorf("%s returned %d", e.tag, resp.StatusCode)
		}

		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				e.logger.Warn(e.tag+".decode_failed",
					zap.String("endpoint", r.Endpoint),
					zap.Error(err),
					zap.String("body", string(body)))
				return fmt.Errorf("decode failed: %w", err)
			}
		}

		e.logger.Debug(e.tag+".http_success",
			zap.String("endpoint", r.Endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", elapsed))
		return nil
	}

	if e.retryMax == 0 {
		return fmt.Errorf("%s request failed: %w", e.tag, lastErr)
	}
	return fmt.Errorf("%s request failed after %d attempts: %w", e.tag, e.retryMax+1, lastErr)
}
