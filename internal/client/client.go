// Package client implements the queue handle: the proxy through which
// producer and consumer processes operate on the broker-owned queue.
// All calls go over the broker's HTTP API; blocking get is composed
// from repeated bounded long polls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chute-dev/chute/internal/queue"
	"github.com/chute-dev/chute/pkg/log"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrBrokerUnreachable marks transport-level failures: the broker
// process is gone, refusing connections, or the link died mid-call.
// Workers treat it as fatal and do not retry.
var ErrBrokerUnreachable = errors.New("broker unreachable")

// Options configures a Handle.
type Options struct {
	// Endpoint is the broker base URL, e.g. "http://127.0.0.1:7381".
	Endpoint string
	// WaitMs is the long-poll window sent with each get. 0 means the
	// broker's default.
	WaitMs int64
	// RetryMax is the transport-level retry budget per call. The
	// default 0 fails fast, matching the pipeline's no-retry design.
	RetryMax int
	// Logger receives debug lines; nil disables them.
	Logger log.Logger
}

// Stats mirrors the broker's stats payload.
type Stats struct {
	RunID    string      `json:"run_id"`
	UptimeMs int64       `json:"uptime_ms"`
	Queue    queue.Stats `json:"queue"`
}

// Handle is a queue proxy backed by one HTTP client. Safe for
// concurrent use.
type Handle struct {
	endpoint string
	waitMs   int64
	http     *retryablehttp.Client
	logger   log.Logger
}

// New builds a Handle. It performs no I/O; the first call does.
func New(opts Options) *Handle {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil

	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger(log.WithLevel(log.ErrorLevel))
	}
	waitMs := opts.WaitMs
	if waitMs <= 0 {
		waitMs = 5000
	}
	return &Handle{
		endpoint: opts.Endpoint,
		waitMs:   waitMs,
		http:     rc,
		logger:   logger.With(log.Component("client")),
	}
}

type putReq struct {
	Item *int64 `json:"item"`
}

type getReq struct {
	WaitMs int64 `json:"wait_ms"`
}

type putResp struct {
	Size int `json:"size"`
}

type getResp struct {
	Item int64 `json:"item"`
	Size int   `json:"size"`
}

type sizeResp struct {
	Size int `json:"size"`
}

type healthResp struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
}

// GetResult is one dequeued item plus the queue depth observed right
// after it was removed.
type GetResult struct {
	Item int64
	Size int
}

// Put appends item to the queue and returns the depth after the
// append. It blocks while a bounded queue with block policy is full,
// bounded by ctx.
func (h *Handle) Put(ctx context.Context, item int64) (int, error) {
	resp, err := h.do(ctx, http.MethodPost, "/v1/queue/put", putReq{Item: &item})
	if err != nil {
		return 0, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return 0, h.apiError(resp)
	}
	var pr putResp
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, fmt.Errorf("decode put response: %w", err)
	}
	return pr.Size, nil
}

// Get blocks until an item is available, the queue reports closed, or
// ctx is done. Empty long-poll windows are re-polled transparently.
func (h *Handle) Get(ctx context.Context) (GetResult, error) {
	for {
		res, ok, err := h.GetWait(ctx, h.waitMs)
		if err != nil {
			return GetResult{}, err
		}
		if ok {
			return res, nil
		}
		if ctx.Err() != nil {
			return GetResult{}, ctx.Err()
		}
		h.logger.Debug("queue empty, re-polling", log.Int64("wait_ms", h.waitMs))
	}
}

// GetWait performs a single long-poll window of waitMs. The second
// return is false when the window elapsed with no item.
func (h *Handle) GetWait(ctx context.Context, waitMs int64) (GetResult, bool, error) {
	resp, err := h.do(ctx, http.MethodPost, "/v1/queue/get", getReq{WaitMs: waitMs})
	if err != nil {
		return GetResult{}, false, err
	}
	defer drain(resp)
	switch resp.StatusCode {
	case http.StatusOK:
		var gr getResp
		if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
			return GetResult{}, false, fmt.Errorf("decode get response: %w", err)
		}
		return GetResult{Item: gr.Item, Size: gr.Size}, true, nil
	case http.StatusNoContent:
		return GetResult{}, false, nil
	default:
		return GetResult{}, false, h.apiError(resp)
	}
}

// Size reports the queue depth.
func (h *Handle) Size(ctx context.Context) (int, error) {
	resp, err := h.do(ctx, http.MethodGet, "/v1/queue/size", nil)
	if err != nil {
		return 0, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return 0, h.apiError(resp)
	}
	var sr sizeResp
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, fmt.Errorf("decode size response: %w", err)
	}
	return sr.Size, nil
}

// Stats fetches run identity and queue counters.
func (h *Handle) Stats(ctx context.Context) (Stats, error) {
	resp, err := h.do(ctx, http.MethodGet, "/v1/queue/stats", nil)
	if err != nil {
		return Stats{}, err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return Stats{}, h.apiError(resp)
	}
	var st Stats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return Stats{}, fmt.Errorf("decode stats response: %w", err)
	}
	return st, nil
}

// Close stops queue intake so the backlog can drain. Idempotent.
func (h *Handle) Close(ctx context.Context) error {
	resp, err := h.do(ctx, http.MethodPost, "/v1/queue/close", nil)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusNoContent {
		return h.apiError(resp)
	}
	return nil
}

// Health checks broker liveness and returns the run id.
func (h *Handle) Health(ctx context.Context) (string, error) {
	resp, err := h.do(ctx, http.MethodGet, "/v1/healthz", nil)
	if err != nil {
		return "", err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return "", h.apiError(resp)
	}
	var hr healthResp
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return "", fmt.Errorf("decode health response: %w", err)
	}
	return hr.RunID, nil
}

func (h *Handle) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, h.endpoint+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnreachable, err)
	}
	return resp, nil
}

// apiError maps broker error responses onto the queue sentinels.
func (h *Handle) apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)

	switch resp.StatusCode {
	case http.StatusConflict, http.StatusGone:
		return queue.ErrClosed
	case http.StatusTooManyRequests:
		return queue.ErrFull
	default:
		if body.Error != "" {
			return fmt.Errorf("broker returned %s: %s", resp.Status, body.Error)
		}
		return fmt.Errorf("broker returned %s", resp.Status)
	}
}

// drain discards the rest of the body and closes it so the transport
// can reuse the connection.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
