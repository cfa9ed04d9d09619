package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 2 * time.Second

type probe struct {
	name   string
	pinger Pinger
}

// HealthHandler serves liveness and readiness.
type HealthHandler struct {
	serviceName string
	version     string
	probes      []probe
}

// NewHealthHandler checks postgres always and redis only when it is non-nil.
func NewHealthHandler(serviceName, version string, postgres, redis Pinger) *HealthHandler {
	probes := []probe{{name: "postgres", pinger: postgres}}
	if redis != nil {
		probes = append(probes, probe{name: "redis", pinger: redis})
	}
	return &HealthHandler{serviceName: serviceName, version: version, probes: probes}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready GET /health/ready. Any failing dependency turns the probe into a 503.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	deps := fiber.Map{}
	ready := true
	for _, p := range h.probes {
		if err := p.pinger.Ping(ctx); err != nil {
			deps[p.name] = err.Error()
			ready = false
			continue
		}
		deps[p.name] = "ok"
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": deps,
			},
		})
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": deps})
}
