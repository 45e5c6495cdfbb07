package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/{alias}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://example.com", http.StatusFound)
	})

	for _, path := range []string{"/a", "/b", "/c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusFound, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/{alias}", "302")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestsTotal))
}

func TestCounters(t *testing.T) {
	m := New()

	m.LinkCreated(SourceAPI)
	m.LinkCreated(SourceAPI)
	m.LinkCreated(SourceForm)
	m.Redirect(ResultNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.linksCreated.WithLabelValues(SourceAPI)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.linksCreated.WithLabelValues(SourceForm)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.redirects.WithLabelValues(ResultNotFound)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Redirect(ResultFound)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `shortlink_redirects_total{result="found"} 1`))
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}
