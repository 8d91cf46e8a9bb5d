package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/worklink/internal/domain/job"
	"github.com/gin-gonic/gin"
)

// BacklogFunc reports how many outbox jobs sit in each status.
type BacklogFunc func(ctx context.Context) (map[job.Status]int64, error)

// HealthHandler serves the worker's ops port:
//
//	/healthz  process is up
//	/readyz   run loop active and database reachable
//	/stats    in-process delivery counters plus the outbox backlog
func (w *Worker) HealthHandler(ping func(ctx context.Context) error, backlog BacklogFunc) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "workerId": w.cfg.WorkerID})
	})

	r.GET("/readyz", func(c *gin.Context) {
		if !w.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "loop_stopped"})
			return
		}
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "db_unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/stats", func(c *gin.Context) {
		snap := w.Stats.Snapshot()
		body := gin.H{
			"workerId":          w.cfg.WorkerID,
			"claimed":           snap.Claimed,
			"done":              snap.Done,
			"retried":           snap.Retried,
			"failed":            snap.Failed,
			"deadLettered":      snap.DeadLettered,
			"delivered":         snap.Delivered,
			"averageDurationMs": snap.AverageDuration.Milliseconds(),
			"maxDurationMs":     snap.MaxDuration.Milliseconds(),
		}

		if backlog != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			counts, err := backlog(ctx)
			if err != nil {
				w.Log.WarnContext(ctx, "backlog query failed", "err", err)
				body["backlogError"] = "unavailable"
			} else {
				body["backlog"] = counts
			}
		}
		c.JSON(http.StatusOK, body)
	})

	return r
}
