package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"sales-dashboard/internal/models"
)

func TestSSEHandlers_renderCountryTable(t *testing.T) {
	h := NewSSEHandlers(newTestService(), testLogger())

	html, err := h.renderCountryTable([]models.CountryRevenue{
		{Name: "USA", Value: 999.99},
		{Name: "Canada & Co", Value: 1059.98},
	})
	if err != nil {
		t.Fatalf("renderCountryTable() failed: %v", err)
	}

	expectedContent := []string{
		`<div id="country-content">`,
		`<table class="modern-table">`,
		"<th>Country</th>",
		"<th>Revenue</th>",
		"<td>1</td>",
		"USA",
		"$999.99",
		"Canada &amp; Co",
		"$1,059.98",
	}
	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_renderCountryTable_Empty(t *testing.T) {
	h := NewSSEHandlers(newTestService(), testLogger())

	html, err := h.renderCountryTable(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "No countries") {
		t.Errorf("expected empty-state row, got %s", html)
	}
}

func checkSSEHeaders(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected cache-control 'no-cache', got %q", cc)
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	svc := newTestService()
	h := NewSSEHandlers(svc, testLogger())
	id := seed(t, svc, "sales.csv", salesCSV)

	w := httptest.NewRecorder()
	h.HandleRefreshAll(w, datasetRequest(http.MethodGet, "/sse/datasets/"+id+"/refresh-all", id))

	checkSSEHeaders(t, w)

	body := w.Body.String()
	for _, want := range []string{
		"datastar-patch-elements",
		"datastar-patch-signals",
		`id="summary-cards"`,
		"$1,139.96",
		"<table",
		`id="products-content"`,
		"Customer U001",
		"countryData",
		"timeSeriesData",
		"topProducts",
		"topCustomers",
		"totalRevenue",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("response should contain %q", want)
		}
	}
}

func TestSSEHandlers_HandleRefreshAll_EmptyStatus(t *testing.T) {
	svc := newTestService()
	h := NewSSEHandlers(svc, testLogger())

	tests := []struct {
		name     string
		contents string
		message  string
	}{
		{"no data", "Price,Quantity\n", "No data available for dashboard"},
		{"invalid format", "Name\nAda\n", "Invalid data format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := seed(t, svc, "data.csv", tt.contents)

			w := httptest.NewRecorder()
			h.HandleRefreshAll(w, datasetRequest(http.MethodGet, "/sse/datasets/"+id+"/refresh-all", id))

			checkSSEHeaders(t, w)
			body := w.Body.String()
			if !strings.Contains(body, `id="dashboard-status"`) || !strings.Contains(body, tt.message) {
				t.Errorf("expected status panel with %q, got %s", tt.message, body)
			}
		})
	}
}

func TestSSEHandlers_HandleRefreshAll_NotFound(t *testing.T) {
	h := NewSSEHandlers(newTestService(), testLogger())

	w := httptest.NewRecorder()
	h.HandleRefreshAll(w, datasetRequest(http.MethodGet, "/sse/datasets/missing/refresh-all", "missing"))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("errors before the stream opens should be JSON, got %q", ct)
	}
}

func TestSSEHandlers_HandleTimeSeries(t *testing.T) {
	svc := newTestService()
	h := NewSSEHandlers(svc, testLogger())
	id := seed(t, svc, "sales.csv", salesCSV)

	w := httptest.NewRecorder()
	h.HandleTimeSeries(w, datasetRequest(http.MethodGet, "/sse/datasets/"+id+"/time-series?granularity=daily", id))

	checkSSEHeaders(t, w)
	body := w.Body.String()
	if !strings.Contains(body, "timeSeriesData") || !strings.Contains(body, "2023-01-15") {
		t.Errorf("response should contain daily time series, got %s", body)
	}
	if strings.Contains(body, "topProducts") {
		t.Error("time series update should not resend other signals")
	}
}

func TestSSEHandlers_HandleTimeSeries_FromSignals(t *testing.T) {
	svc := newTestService()
	h := NewSSEHandlers(svc, testLogger())
	id := seed(t, svc, "sales.csv", salesCSV)

	target := "/sse/datasets/" + id + "/time-series?datastar=" + url.QueryEscape(`{"granularity":"weekly"}`)
	req := datasetRequest(http.MethodGet, target, id)
	req.Header.Set("Datastar-Request", "true")
	w := httptest.NewRecorder()
	h.HandleTimeSeries(w, req)

	checkSSEHeaders(t, w)
	if !strings.Contains(w.Body.String(), "2023-W3") {
		t.Errorf("expected weekly buckets from the granularity signal, got %s", w.Body.String())
	}
}

func TestSSEHandlers_HandleTimeSeries_InvalidGranularity(t *testing.T) {
	svc := newTestService()
	h := NewSSEHandlers(svc, testLogger())
	id := seed(t, svc, "sales.csv", salesCSV)

	w := httptest.NewRecorder()
	h.HandleTimeSeries(w, datasetRequest(http.MethodGet, "/sse/datasets/"+id+"/time-series?granularity=yearly", id))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}
