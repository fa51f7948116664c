package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/chute-dev/chute/internal/broker"
	"github.com/chute-dev/chute/internal/queue"
)

// QueueController handles all queue-operation endpoints.
//
// Put and get carry the pipeline's items; size, stats and close exist
// for observability and cooperative shutdown.
type QueueController struct {
	rt *broker.Runtime
}

// NewQueueController creates a new queue controller.
func NewQueueController(rt *broker.Runtime) *QueueController {
	return &QueueController{rt: rt}
}

// RegisterRoutes registers all queue routes with the given mux.
func (c *QueueController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/queue/put", c.handlePut)
	mux.HandleFunc("/v1/queue/get", c.handleGet)
	mux.HandleFunc("/v1/queue/size", c.handleSize)
	mux.HandleFunc("/v1/queue/stats", c.handleStats)
	mux.HandleFunc("/v1/queue/close", c.handleClose)
}

// handlePut appends one item to the queue.
// POST /v1/queue/put {"item": N}
//
// 200 with the new size on success, 409 once intake is closed, 429
// when a bounded queue rejects.
func (c *QueueController) handlePut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req putReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Item == nil {
		writeError(w, http.StatusBadRequest, "item required")
		return
	}

	err := c.rt.Put(r.Context(), *req.Item)
	switch {
	case err == nil:
		writeJSON(w, putResp{Size: c.rt.Size()})
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusConflict, "queue closed")
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "queue full")
	case r.Context().Err() != nil:
		// Client went away mid-block; nothing to answer.
	default:
		writeError(w, http.StatusInternalServerError, "put failed")
	}
}

// handleGet removes and returns the oldest item, long-polling while
// the queue is empty.
// POST /v1/queue/get {"wait_ms": N}
//
// 200 with the item, 204 when the wait window closed empty, 410 once
// intake is closed and the backlog drained.
func (c *QueueController) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req getReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, ok, err := c.rt.Get(r.Context(), time.Duration(req.WaitMs)*time.Millisecond)
	switch {
	case err == nil && ok:
		writeJSON(w, getResp{Item: item, Size: c.rt.Size()})
	case err == nil:
		writeNoContent(w)
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusGone, "queue closed")
	case r.Context().Err() != nil:
		// Client went away mid-poll; nothing to answer.
	default:
		writeError(w, http.StatusInternalServerError, "get failed")
	}
}

// handleSize reports the current queue depth.
// GET /v1/queue/size
func (c *QueueController) handleSize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, sizeResp{Size: c.rt.Size()})
}

// handleStats reports run identity and queue counters.
// GET /v1/queue/stats
func (c *QueueController) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, c.rt.Stats())
}

// handleClose stops intake so the backlog can drain.
// POST /v1/queue/close
//
// Idempotent; always 204.
func (c *QueueController) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	c.rt.CloseIntake()
	writeNoContent(w)
}
