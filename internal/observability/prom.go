package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "worklink"

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// Marketplace counts successful user actions, labelled by action name.
	Marketplace *prometheus.CounterVec

	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	JobDuration        *prometheus.HistogramVec
	JobResults         *prometheus.CounterVec
	JobsInFlight       prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route template and status.",
		}, []string{"method", "route", "status"}),

		RequestsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),

		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "HTTP requests currently being served.",
		}, []string{"method", "route"}),

		Marketplace: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marketplace_actions_total",
			Help:      "Successful marketplace actions (posts, applications, saves, messages).",
		}, []string{"action"}),

		DbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Store operation latency by logical op and outcome.",
			Buckets:   []float64{0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
		}, []string{"op", "status"}),

		DbErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Unexpected store errors by logical op and class.",
		}, []string{"op", "class"}),

		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Notification job run time by type and result.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 3, 10, 30},
		}, []string{"job_type", "result"}),

		JobResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "results_total",
			Help:      "Notification job outcomes: done, retry, failed, dead_letter.",
		}, []string{"job_type", "result"}),

		JobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Jobs executing in this process.",
		}),

		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "total",
			Help:      "Notifier sends by kind and result.",
		}, []string{"kind", "result"}),
	}

	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight, p.Marketplace,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.JobDuration, p.JobResults, p.JobsInFlight, p.NotificationsTotal,
	)
	return p
}

// marketplaceActions maps write routes to the action they count as.
var marketplaceActions = map[string]string{
	"POST /api/auth/register":          "register",
	"POST /api/work-posts":             "work_post_created",
	"DELETE /api/work-posts/:id":       "work_post_deleted",
	"POST /api/work-posts/:id/request": "work_post_request_toggled",
	"POST /api/worker-profiles":        "worker_profile_created",
	"POST /api/connection-requests":    "applied",
	"PUT /api/connection-requests/:id": "application_decided",
	"POST /api/saved-jobs":             "job_saved",
	"POST /api/saved-workers":          "worker_saved",
	"POST /api/chats/:chatId":          "message_sent",
	"POST /api/chats/:chatId/read":     "chat_read",
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// FullPath is the route template, so ids never become label values
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method

		inflight := p.InFlight.WithLabelValues(method, route)
		inflight.Inc()
		defer inflight.Dec()

		ctx.Next()

		code := ctx.Writer.Status()
		status := strconv.Itoa(code)
		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())

		if code < http.StatusBadRequest {
			if action, ok := marketplaceActions[method+" "+route]; ok {
				p.Marketplace.WithLabelValues(action).Inc()
			}
		}
	}
}
