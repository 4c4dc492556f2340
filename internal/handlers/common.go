package handlers

import (
	"context"
	"time"

	"github.com/forumhub/phone-verification/internal/config"
	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/services"
	"github.com/forumhub/phone-verification/internal/userdir"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Handler carries the wired services for every route. Construction
// happens once in main; handlers hold no per-request state.
type Handler struct {
	service *services.VerificationService
	users   userdir.Directory
	cfg     *config.Config
	logger  *logging.SafeLogger
	ping    func(ctx context.Context) error
}

// NewHandler wires a handler over the orchestrating service. ping
// reports store reachability for the health endpoint.
func NewHandler(
	service *services.VerificationService,
	users userdir.Directory,
	cfg *config.Config,
	logger *logging.SafeLogger,
	ping func(ctx context.Context) error,
) *Handler {
	return &Handler{
		service: service,
		users:   users,
		cfg:     cfg,
		logger:  logger,
		ping:    ping,
	}
}
