package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGinHandleMiddleware_CountsMarketplaceActions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.POST("/api/connection-requests", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/api/saved-jobs", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/api/work-posts", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/connection-requests"},
		{http.MethodPost, "/api/connection-requests"},
		{http.MethodPost, "/api/saved-jobs"},
		{http.MethodGet, "/api/work-posts"},
		{http.MethodGet, "/nope"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))
	}

	if got := testutil.ToFloat64(p.Marketplace.WithLabelValues("applied")); got != 2 {
		t.Fatalf("expected 2 applications, got %v", got)
	}
	if got := testutil.ToFloat64(p.Marketplace.WithLabelValues("job_saved")); got != 0 {
		t.Fatalf("rejected saves must not count, got %v", got)
	}
	if got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched routes share one label, got %v", got)
	}
}
