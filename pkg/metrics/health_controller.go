package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/httpapi"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status string `json:"status"`
	API    string `json:"api"`
}

type HealthController struct {
	api     Pinger
	timeout time.Duration
}

func NewHealthController(api Pinger) application.Controller {
	return &HealthController{api: api, timeout: 5 * time.Second}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Health).Methods(http.MethodGet)
}

func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if c.api == nil {
		_ = httpapi.WriteJSON(w, http.StatusOK, &HealthResponse{Status: "ok", API: "unconfigured"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()
	if err := c.api.Ping(ctx); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("health: api ping failed")
		_ = httpapi.WriteJSON(w, http.StatusServiceUnavailable, &HealthResponse{
			Status: "degraded",
			API:    errors.Cause(err).Error(),
		})
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &HealthResponse{Status: "ok", API: "ok"})
}
