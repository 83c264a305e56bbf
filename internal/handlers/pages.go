package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewPageHandlers(dashboard *services.Dashboard, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, title string, body templ.Component) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	html, err := templates.Render(ctx, templates.Layout(title, body))
	if err != nil {
		observability.LoggerFrom(ctx, h.logger).Error("render page", "title", title, "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	w.Write([]byte(html))
}

func (h *PageHandlers) datasetLinks() []templates.DatasetLink {
	datasets := h.dashboard.Datasets()
	links := make([]templates.DatasetLink, 0, len(datasets))
	for _, ds := range datasets {
		links = append(links, templates.DatasetLink{
			ID:      ds.ID,
			Name:    ds.Name,
			Records: ds.Records,
			Created: ds.CreatedAt.UTC().Format(time.DateTime),
		})
	}
	return links
}

func (h *PageHandlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.render(w, r, http.StatusNotFound, "Not found", templates.StatusPanel("Page not found", r.URL.Path))
		return
	}
	h.render(w, r, http.StatusOK, "Sales Dashboard", templates.Home(h.datasetLinks(), nil))
}

func (h *PageHandlers) HandleDataset(w http.ResponseWriter, r *http.Request) {
	g, err := parseGranularity(r)
	if err != nil {
		g = models.GranularityMonthly
	}

	ds, err := h.dashboard.Dataset(r.PathValue("id"))
	if err != nil {
		appErr := toAppError(err)
		h.render(w, r, appErr.StatusCode, "Not found", templates.StatusPanel(appErr.Message, "Upload a file to create a dataset"))
		return
	}

	h.render(w, r, http.StatusOK, ds.Name, templates.DatasetPage(ds.ID, ds.Name, g))
}

// HandleUpload accepts the upload form and redirects to the new dashboard.
func (h *PageHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	file, filename, err := formFile(r)
	if err != nil {
		h.uploadFailed(w, r, err)
		return
	}
	defer file.Close()

	dataset, err := h.dashboard.Upload(r.Context(), filename, file)
	if err != nil {
		h.uploadFailed(w, r, err)
		return
	}

	http.Redirect(w, r, "/datasets/"+dataset.ID, http.StatusSeeOther)
}

func (h *PageHandlers) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	observability.LoggerFrom(r.Context(), h.logger).Warn("upload rejected",
		"error_code", appErr.Code,
		"error", err,
	)
	flash := templates.StatusPanel(appErr.Message, appErr.Details)
	h.render(w, r, appErr.StatusCode, "Sales Dashboard", templates.Home(h.datasetLinks(), flash))
}
