package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/homestead/internal/domain/models"
)

func TestObserveMutationLabels(t *testing.T) {
	m := New()
	m.ObserveMutation("breeding.complete", nil)
	m.ObserveMutation("breeding.complete", fmt.Errorf("wrap: %w", models.Invalid("litterSize", "too small")))
	m.ObserveMutation("breeding.complete", models.NotFoundError{Entity: "breeding record", ID: "x"})
	m.ObserveMutation("breeding.complete", errors.New("disk"))

	body := scrape(t, m)
	for _, result := range []string{"ok", "invalid", "not_found", "error"} {
		line := fmt.Sprintf(`homestead_ledger_mutations_total{operation="breeding.complete",result=%q} 1`, result)
		assert.Contains(t, body, line)
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, 5*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `homestead_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, body, "homestead_http_request_duration_seconds")
}
