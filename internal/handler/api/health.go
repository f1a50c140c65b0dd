package api

import (
	"net/http"
	"time"

	"inventory-engine/internal/pkg/clock"
	"inventory-engine/internal/usecase/queries"
	"inventory-engine/internal/worker"

	"github.com/gin-gonic/gin"
)

// staleAfter flags a worker whose last cycle is older than this. The sweeper
// runs every 30s, the publisher every second and the consumer beats on a 30s
// tick even when its topic is quiet, so two minutes of silence means the loop
// is wedged.
const staleAfter = 2 * time.Minute

type HealthHandler struct {
	queries  queries.InventoryQueries
	liveness *worker.Liveness
	clock    clock.Clock
}

func NewHealthHandler(q queries.InventoryQueries, liveness *worker.Liveness, clk clock.Clock) *HealthHandler {
	return &HealthHandler{
		queries:  q,
		liveness: liveness,
		clock:    clk,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	now := h.clock.Now()
	workers := gin.H{}
	healthy := true
	for _, name := range []string{worker.NameSweeper, worker.NamePublisher, worker.NameConsumer} {
		last, ok := h.liveness.LastCycle(name)
		switch {
		case !ok:
			workers[name] = gin.H{"status": "starting"}
		case now.Sub(last) > staleAfter:
			workers[name] = gin.H{"status": "stale", "last_cycle": last}
			healthy = false
		default:
			workers[name] = gin.H{"status": "ok", "last_cycle": last}
		}
	}

	body := gin.H{
		"status":  "ok",
		"workers": workers,
	}

	counts, err := h.queries.PendingCounts(c.Request.Context())
	if err != nil {
		body["status"] = "degraded"
		body["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["pending_reservations"] = counts.Reservations
	body["pending_outbox_events"] = counts.OutboxEvents

	if !healthy {
		body["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
