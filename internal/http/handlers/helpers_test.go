package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/worklink/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// identity stands in for RequireAuth so handlers can be tested alone.
func identity(userID, role, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUserID, userID)
		c.Set(middlewares.CtxRole, role)
		c.Set(middlewares.CtxName, name)
		c.Next()
	}
}

// small helper which returns a gin engine with one route mounted behind an identity
func setupRouter(method, path string, id gin.HandlerFunc, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	if id != nil {
		r.Handle(method, path, id, h)
	} else {
		r.Handle(method, path, h)
	}
	return r
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"requestId"`
	Details   json.RawMessage `json:"details"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var e errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return e
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid body %q: %v", w.Body.String(), err)
	}
	return v
}

type listBody[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}
