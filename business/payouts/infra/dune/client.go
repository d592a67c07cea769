// Package dune runs parameterized queries against the Dune analytics API
// and returns their results as tables.
package dune

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/circuitbreaker"
	"github.com/cowprotocol/solver-rewards/internal/frame"
	"github.com/cowprotocol/solver-rewards/internal/httpclient"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

const (
	// BaseAPIURL is the public API endpoint.
	BaseAPIURL = "https://api.dune.com/api/v1"

	executeEndpoint = "/query/%d/execute"
	statusEndpoint  = "/execution/%s/status"
	resultsEndpoint = "/execution/%s/results"

	defaultPollInterval = 5 * time.Second
	defaultTimeout      = 10 * time.Minute
	tracerName          = "dune"
)

// Execution states reported by the API.
const (
	StateCompleted = "QUERY_STATE_COMPLETED"
	StateFailed    = "QUERY_STATE_FAILED"
	StateCancelled = "QUERY_STATE_CANCELLED"
	StateExpired   = "QUERY_STATE_EXPIRED"
)

// Config holds the client settings.
type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	// Timeout bounds one query from execution to results.
	Timeout time.Duration
}

// Client executes queries and waits for their results.
type Client struct {
	client       httpclient.Client
	cb           *circuitbreaker.CircuitBreaker[[]byte]
	pollInterval time.Duration
	timeout      time.Duration
	logger       logger.LoggerInterface
	tracer       trace.Tracer
}

// NewClient creates a Dune API client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("dune: api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tracer := otel.Tracer(tracerName)
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("dune"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithTracer(tracer),
		httpclient.WithHeader("Accept", "application/json"),
		httpclient.WithHeader("Content-Type", "application/json"),
		httpclient.WithSecretHeader("X-Dune-API-Key", cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	c := &Client{
		client:       client,
		pollInterval: poll,
		timeout:      timeout,
		logger:       log,
		tracer:       tracer,
	}
	breaker := circuitbreaker.DefaultConfig("dune")
	breaker.OnStateChange = func(name string, from, to gobreaker.State) {
		c.logger.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	c.cb = circuitbreaker.New[[]byte](breaker)
	return c, nil
}

type executeRequest struct {
	QueryParameters map[string]string `json:"query_parameters"`
}

type executeResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
}

type statusResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
}

type resultsResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
	Result      struct {
		Rows     []map[string]json.RawMessage `json:"rows"`
		Metadata struct {
			ColumnNames []string `json:"column_names"`
		} `json:"metadata"`
	} `json:"result"`
}

// Query executes queryID with params and returns its rows as a table named
// name.
func (c *Client) Query(ctx context.Context, name string, queryID int, params map[string]string) (*frame.Table, error) {
	ctx, span := c.tracer.Start(ctx, "dune.query",
		trace.WithAttributes(
			attribute.String("table", name),
			attribute.Int("query_id", queryID),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	table, err := c.query(ctx, name, queryID, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", table.Len()))
	return table, nil
}

func (c *Client) query(ctx context.Context, name string, queryID int, params map[string]string) (*frame.Table, error) {
	var exec executeResponse
	if err := c.call(ctx, "execute", fmt.Sprintf("query %d", queryID), &exec, func() (*httpclient.Response, error) {
		return c.client.NewRequest().
			SetLabels(httpclient.NewLabel("endpoint", "execute")).
			SetBody(executeRequest{QueryParameters: params}).
			Post(ctx, fmt.Sprintf(executeEndpoint, queryID))
	}); err != nil {
		return nil, err
	}
	c.logger.Info(ctx, "dune query executing", "table", name, "query_id", queryID, "execution_id", exec.ExecutionID)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		var status statusResponse
		if err := c.call(ctx, "status", exec.ExecutionID, &status, func() (*httpclient.Response, error) {
			return c.client.NewRequest().
				SetLabels(httpclient.NewLabel("endpoint", "status")).
				Get(ctx, fmt.Sprintf(statusEndpoint, exec.ExecutionID))
		}); err != nil {
			return nil, err
		}

		switch status.State {
		case StateCompleted:
			return c.results(ctx, name, exec.ExecutionID)
		case StateFailed, StateCancelled, StateExpired:
			return nil, apperror.New(apperror.CodeSourceFailed,
				apperror.WithContext(fmt.Sprintf("dune execution %s of %s ended in %s", exec.ExecutionID, name, status.State)),
			)
		}

		c.logger.Debug(ctx, "dune query pending", "execution_id", exec.ExecutionID, "state", status.State)
		select {
		case <-ctx.Done():
			return nil, apperror.External(apperror.CodeSourceFailed, "waiting for dune execution "+exec.ExecutionID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) results(ctx context.Context, name, executionID string) (*frame.Table, error) {
	var res resultsResponse
	if err := c.call(ctx, "results", executionID, &res, func() (*httpclient.Response, error) {
		return c.client.NewRequest().
			SetLabels(httpclient.NewLabel("endpoint", "results")).
			Get(ctx, fmt.Sprintf(resultsEndpoint, executionID))
	}); err != nil {
		return nil, err
	}

	columns := res.Result.Metadata.ColumnNames
	if len(columns) == 0 && len(res.Result.Rows) > 0 {
		for col := range res.Result.Rows[0] {
			columns = append(columns, col)
		}
		sort.Strings(columns)
	}

	t := frame.New(name, columns...)
	for _, row := range res.Result.Rows {
		cells := make(map[string]string, len(row))
		for col, raw := range row {
			cells[col] = cell(raw)
		}
		t.AppendMap(cells)
	}
	c.logger.Info(ctx, "dune query finished", "table", name, "execution_id", executionID, "rows", t.Len())
	return t, nil
}

// call runs one request through the breaker and decodes its body into out.
func (c *Client) call(ctx context.Context, step, subject string, out any, do func() (*httpclient.Response, error)) error {
	body, err := c.cb.Execute(func() ([]byte, error) {
		resp, err := do()
		if err != nil {
			return nil, err
		}
		return resp.Body(), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return apperror.External(apperror.CodeSourceFailed, "dune unavailable", err)
		}
		return apperror.External(apperror.CodeSourceFailed, fmt.Sprintf("dune %s %s", step, subject), err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperror.External(apperror.CodeSourceFailed, fmt.Sprintf("decode dune %s %s", step, subject), err)
	}
	return nil
}

// cell renders a JSON value as a frame cell. Strings are unquoted, null is
// empty and numbers and lists keep their literal text.
func cell(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
