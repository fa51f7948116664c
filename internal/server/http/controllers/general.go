package controllers

import (
	"net/http"

	"github.com/chute-dev/chute/internal/broker"
)

// GeneralController handles endpoints that are not queue operations:
// health checks and run identity.
type GeneralController struct {
	rt *broker.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *broker.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers general routes with the given mux.
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", c.handleHealth)
}

// handleHealth returns the liveness of the broker.
//
// The supervisor polls this during startup to decide when workers may
// be spawned. Returns 200 with the run id when serving, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, healthResp{Status: "ok", RunID: c.rt.RunID().String()})
}
