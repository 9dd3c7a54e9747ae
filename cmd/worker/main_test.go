package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront/internal/app"
	"github.com/storefront-labs/storefront/internal/observability"
	_ "github.com/storefront-labs/storefront/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}

func TestMetricsServerExposesJobMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	_ = metrics.Jobs.Track("product_thumbnails").End(nil)

	srv := newMetricsServer(":0", metrics)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_jobs_total{job="product_thumbnails",status="success"} 1`)
}
