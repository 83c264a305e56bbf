package handlers

import (
	stderrors "errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const cacheMaxAge = "private, max-age=300"

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

type datasetResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, toAppError(err), observability.GetRequestID(r.Context()))
}

// toAppError maps service and pipeline errors onto API error codes.
func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	var maxBytes *http.MaxBytesError

	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, models.ErrNoData):
		return errors.NoData()
	case stderrors.Is(err, models.ErrInvalidFormat):
		return errors.InvalidFormat()
	case services.IsNotFound(err):
		return errors.NotFound("Dataset not found")
	case stderrors.Is(err, ingest.ErrUnsupportedFile):
		return errors.UnsupportedFile(err, "Unsupported file type")
	case stderrors.Is(err, ingest.ErrTooManyRows):
		return errors.PayloadTooLarge(err, "File has too many rows")
	case stderrors.As(err, &maxBytes):
		return errors.PayloadTooLarge(err, "Upload exceeds the size limit")
	case stderrors.Is(err, ingest.ErrUnreadableFile):
		return errors.BadRequestWrap(err, "File could not be read")
	case stderrors.Is(err, http.ErrMissingFile):
		return errors.BadRequestWrap(err, "A file field is required")
	default:
		return errors.InternalWrap(err, "An unexpected error occurred")
	}
}

// formFile returns the multipart "file" field after validating its name.
func formFile(r *http.Request) (multipart.File, string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", err
	}
	if err := validate.Struct(uploadForm{Filename: header.Filename}); err != nil {
		file.Close()
		return nil, "", validationError(err)
	}
	return file, header.Filename, nil
}

func toDatasetResponse(id, name string, records int, created time.Time) datasetResponse {
	return datasetResponse{ID: id, Name: name, RecordCount: records, CreatedAt: created}
}

func (h *APIHandlers) HandleUploadDataset(w http.ResponseWriter, r *http.Request) {
	file, filename, err := formFile(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer file.Close()

	ds, err := h.dashboard.Upload(r.Context(), filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/datasets/"+ds.ID)
	errors.WriteJSON(w, http.StatusCreated, toDatasetResponse(ds.ID, ds.Name, ds.Records, ds.CreatedAt))
}

// HandleCSVList parses an uploaded file and returns its rows without storing
// them. Unusable numeric cells are returned as null.
func (h *APIHandlers) HandleCSVList(w http.ResponseWriter, r *http.Request) {
	file, filename, err := formFile(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer file.Close()

	rows, err := h.dashboard.ParseRows(r.Context(), filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*models.SalesRecord{}
	}

	errors.WriteSuccess(w, rows)
}

func (h *APIHandlers) HandleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := h.dashboard.Datasets()

	resp := make([]datasetResponse, 0, len(datasets))
	for _, ds := range datasets {
		resp = append(resp, toDatasetResponse(ds.ID, ds.Name, ds.Records, ds.CreatedAt))
	}

	errors.WriteSuccess(w, resp)
}

func (h *APIHandlers) HandleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dashboard.Dataset(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccess(w, toDatasetResponse(ds.ID, ds.Name, ds.Records, ds.CreatedAt))
}

func (h *APIHandlers) HandleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.dashboard.Delete(id); err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccess(w, map[string]any{"id": id, "deleted": true})
}

// loadDashboard resolves the dataset and granularity of r, writing the error
// response itself when either fails.
func (h *APIHandlers) loadDashboard(w http.ResponseWriter, r *http.Request) (*models.Dashboard, bool) {
	g, err := parseGranularity(r)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	d, err := h.dashboard.Dashboard(r.Context(), r.PathValue("id"), g)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return d, true
}

func (h *APIHandlers) writeCached(w http.ResponseWriter, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.loadDashboard(w, r); ok {
		h.writeCached(w, d)
	}
}

func (h *APIHandlers) HandleCountryRevenue(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.loadDashboard(w, r); ok {
		h.writeCached(w, d.CountryData)
	}
}

func (h *APIHandlers) HandleTimeSeries(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.loadDashboard(w, r); ok {
		h.writeCached(w, d.TimeSeries)
	}
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.loadDashboard(w, r); ok {
		h.writeCached(w, d.TopProducts)
	}
}

func (h *APIHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.loadDashboard(w, r); ok {
		h.writeCached(w, d.TopCustomers)
	}
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.loadDashboard(w, r); ok {
		h.writeCached(w, d.Summary)
	}
}

// HandleAggregate aggregates a JSON array of rows posted in the body.
func (h *APIHandlers) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	g, err := parseGranularity(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	d := h.dashboard.AggregateJSON(r.Context(), body, g)
	if err := d.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccess(w, d)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"datasets":  len(h.dashboard.Datasets()),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
