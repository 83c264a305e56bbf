package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPageHandlers_HandleHome(t *testing.T) {
	svc := newTestService()
	h := NewPageHandlers(svc, testLogger())
	id := seed(t, svc, "sales.csv", salesCSV)

	w := httptest.NewRecorder()
	h.HandleHome(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `enctype="multipart/form-data"`) || !strings.Contains(body, "/datasets/"+id) {
		t.Errorf("home page should show the upload form and dataset link")
	}
}

func TestPageHandlers_HandleHome_UnknownPath(t *testing.T) {
	h := NewPageHandlers(newTestService(), testLogger())

	w := httptest.NewRecorder()
	h.HandleHome(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestPageHandlers_HandleDataset(t *testing.T) {
	svc := newTestService()
	h := NewPageHandlers(svc, testLogger())
	id := seed(t, svc, "sales.csv", salesCSV)

	w := httptest.NewRecorder()
	h.HandleDataset(w, datasetRequest(http.MethodGet, "/datasets/"+id+"?granularity=daily", id))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "/sse/datasets/"+id+"/refresh-all") {
		t.Error("dataset page should load the refresh-all stream")
	}
	if !strings.Contains(body, `<option value="daily" selected>`) {
		t.Error("requested granularity should be selected")
	}

	w = httptest.NewRecorder()
	h.HandleDataset(w, datasetRequest(http.MethodGet, "/datasets/missing", "missing"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for a missing dataset, got %d", w.Code)
	}
}

func TestPageHandlers_HandleUpload(t *testing.T) {
	svc := newTestService()
	h := NewPageHandlers(svc, testLogger())

	body, contentType := multipartBody(t, "file", "sales.csv", salesCSV)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", w.Code)
	}
	datasets := svc.Datasets()
	if len(datasets) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(datasets))
	}
	if loc := w.Header().Get("Location"); loc != "/datasets/"+datasets[0].ID {
		t.Errorf("Location = %q", loc)
	}
}

func TestPageHandlers_HandleUpload_Rejected(t *testing.T) {
	h := NewPageHandlers(newTestService(), testLogger())

	body, contentType := multipartBody(t, "file", "notes.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected status 415, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Unsupported file type") {
		t.Error("rejected upload should render the error panel")
	}
}
