package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/cache"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/pipeline"
)

// StatusSettings is the effective-configuration slice of a status response.
type StatusSettings struct {
	ComposeInterval  string `json:"composeInterval"`
	DispatchInterval string `json:"dispatchInterval"`
	DispatchMax      int    `json:"dispatchMax"`
	ToDomain         string `json:"toDomain"`
	ToPrefix         string `json:"toPrefix"`
	SMTPHost         string `json:"smtpHost"`
	SMTPPort         int    `json:"smtpPort"`
	SendForReal      bool   `json:"sendForReal"`
}

// StatusResponse is the wire format for GET /api/v1/status. emailerctl
// decodes this exact shape.
type StatusResponse struct {
	Tenants    int            `json:"tenants"`
	Workloads  int            `json:"workloads"`
	Events     int            `json:"events"`
	QueueDepth int            `json:"queueDepth"`
	Settings   StatusSettings `json:"settings"`
}

// StatusHandler handles GET /api/v1/status.
type StatusHandler struct {
	logger *zap.Logger
	store  *config.Store
	cache  *cache.Cache
	queue  *pipeline.Queue
}

// NewStatusHandler creates a StatusHandler reporting on the given pipeline
// state.
func NewStatusHandler(logger *zap.Logger, store *config.Store, c *cache.Cache, q *pipeline.Queue) *StatusHandler {
	return &StatusHandler{
		logger: logger.Named("status"),
		store:  store,
		cache:  c,
		queue:  q,
	}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenants, workloads, events := h.cache.Stats()
	cfg := h.store.Snapshot()

	resp := StatusResponse{
		Tenants:    tenants,
		Workloads:  workloads,
		Events:     events,
		QueueDepth: h.queue.Len(),
		Settings: StatusSettings{
			ComposeInterval:  cfg.ComposeInterval.String(),
			DispatchInterval: cfg.DispatchInterval.String(),
			DispatchMax:      cfg.DispatchMax,
			ToDomain:         cfg.ToDomain,
			ToPrefix:         cfg.ToPrefix,
			SMTPHost:         cfg.SMTPHost,
			SMTPPort:         cfg.SMTPPort,
			SendForReal:      cfg.SendForReal,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("could not encode status response", zap.Error(err))
	}
}
