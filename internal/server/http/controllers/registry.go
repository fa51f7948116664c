package controllers

import (
	"net/http"

	"github.com/chute-dev/chute/internal/broker"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes.
type ControllerRegistry struct {
	general *GeneralController
	queue   *QueueController
}

// NewControllerRegistry creates a new controller registry bound to a
// broker runtime.
func NewControllerRegistry(rt *broker.Runtime) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		queue:   NewQueueController(rt),
	}
}

// RegisterAllRoutes registers every controller route with the mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.queue.RegisterRoutes(mux)
}
