package handlers

import (
	"context"
	"net/http"
	"time"

	"peerprep/interview/internal/utils"
)

const readinessTimeout = 2 * time.Second

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"` // "ready" | "not_ready"
	Service string                    `json:"service"`
	Checks  map[string]ReadinessCheck `json:"checks"`
}

// Check reports whether one dependency is usable. A nil Check means the
// dependency was never initialised.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Check
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "interview",
		"version": "1.0.0",
	})
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]ReadinessCheck, len(handler.checks))
	allChecksPass := true
	for name, check := range handler.checks {
		switch {
		case check == nil:
			checks[name] = ReadinessCheck{Status: "failed", Message: name + " not initialized"}
			allChecksPass = false
		default:
			if err := check(ctx); err != nil {
				checks[name] = ReadinessCheck{Status: "failed", Message: err.Error()}
				allChecksPass = false
				continue
			}
			checks[name] = ReadinessCheck{Status: "ok"}
		}
	}

	response := ReadinessResponse{Service: "interview", Checks: checks}
	if allChecksPass {
		response.Status = "ready"
		utils.JSON(writer, http.StatusOK, response)
		return
	}
	response.Status = "not_ready"
	utils.JSON(writer, http.StatusServiceUnavailable, response)
}
