package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

var countryTableTemplate = template.Must(template.New("countryTable").Funcs(template.FuncMap{
	"money": templates.Money,
	"rank":  func(i int) int { return i + 1 },
}).Parse(`
<div id="` + templates.CountryTableID + `">
<table class="modern-table">
<thead><tr><th>#</th><th>Country</th><th>Revenue</th></tr></thead>
<tbody>
{{range $i, $item := .}}<tr>
<td>{{rank $i}}</td>
<td>{{$item.Name}}</td>
<td><strong>{{money $item.Value}}</strong></td>
</tr>{{else}}<tr><td colspan="3">No countries</td></tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderCountryTable(data []models.CountryRevenue) (string, error) {
	var buf strings.Builder
	err := countryTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

func timeSeriesRows(data []models.TimeBucketRevenue) []templates.Row {
	rows := make([]templates.Row, len(data))
	for i, b := range data {
		rows[i] = templates.Row{Label: b.Name, Value: b.Sales}
	}
	return rows
}

func productRows(data []models.ProductRevenue) []templates.Row {
	rows := make([]templates.Row, len(data))
	for i, p := range data {
		rows[i] = templates.Row{Label: p.Name, Value: p.Sales}
	}
	return rows
}

func customerRows(data []models.CustomerSpend) []templates.Row {
	rows := make([]templates.Row, len(data))
	for i, c := range data {
		rows[i] = templates.Row{Label: c.Name, Value: c.Value}
	}
	return rows
}

// dashboardFor loads the dashboard for an SSE request. Request errors are
// answered as JSON before the stream opens; dashboards with an empty status
// are returned for the caller to patch into the page.
func (h *SSEHandlers) dashboardFor(w http.ResponseWriter, r *http.Request) (*models.Dashboard, bool) {
	g, err := parseGranularity(r)
	if err != nil {
		errors.WriteError(w, h.logger, toAppError(err), observability.GetRequestID(r.Context()))
		return nil, false
	}

	d, err := h.dashboard.Dashboard(r.Context(), r.PathValue("id"), g)
	if d == nil {
		errors.WriteError(w, h.logger, toAppError(err), observability.GetRequestID(r.Context()))
		return nil, false
	}
	return d, true
}

func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, c templ.Component) error {
	html, err := templates.Render(ctx, c)
	if err != nil {
		return err
	}
	return sse.PatchElements(html)
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) error {
	data, err := json.Marshal(signals)
	if err != nil {
		return err
	}
	return sse.PatchSignals(data)
}

// patchStatus replaces the dashboard content with the NoData or
// InvalidFormat message.
func (h *SSEHandlers) patchStatus(ctx context.Context, sse *datastar.ServerSentEventGenerator, err error) error {
	appErr := toAppError(err)
	if err := h.patch(ctx, sse, templates.StatusPanel(appErr.Message, appErr.Details)); err != nil {
		return err
	}
	if err := h.patch(ctx, sse, templates.SummaryCards(nil)); err != nil {
		return err
	}
	return h.patchSignals(sse, map[string]any{
		"countryData":    []models.CountryRevenue{},
		"timeSeriesData": []models.TimeBucketRevenue{},
		"topProducts":    []models.ProductRevenue{},
		"topCustomers":   []models.CustomerSpend{},
		"summary":        map[string]any{},
	})
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	logger := observability.LoggerFrom(ctx, h.logger)
	sse := datastar.NewSSE(w, r)

	if status := d.Err(); status != nil {
		if err := h.patchStatus(ctx, sse, status); err != nil {
			logger.Error("patch status panel", "error", err)
		}
		return
	}

	html, err := h.renderCountryTable(d.CountryData)
	if err != nil {
		logger.Error("render country table", "error", err)
		return
	}

	components := []templ.Component{
		templates.StatusPanel("", ""),
		templates.SummaryCards(d.Summary),
		templates.RankedList(templates.TimeSeriesID, "Sales over time", timeSeriesRows(d.TimeSeries)),
		templates.RankedList(templates.ProductsID, "Top products", productRows(d.TopProducts)),
		templates.RankedList(templates.CustomersID, "Top customers", customerRows(d.TopCustomers)),
	}
	for _, c := range components {
		if err := h.patch(ctx, sse, c); err != nil {
			logger.Error("patch dashboard component", "error", err)
			return
		}
	}
	if err := sse.PatchElements(html); err != nil {
		logger.Error("patch country table", "error", err)
		return
	}

	err = h.patchSignals(sse, map[string]any{
		"granularity":    d.Granularity,
		"countryData":    d.CountryData,
		"timeSeriesData": d.TimeSeries,
		"topProducts":    d.TopProducts,
		"topCustomers":   d.TopCustomers,
		"summary":        d.Summary,
	})
	if err != nil {
		logger.Error("patch dashboard signals", "error", err)
	}
}

// HandleTimeSeries answers a granularity change.
func (h *SSEHandlers) HandleTimeSeries(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	logger := observability.LoggerFrom(ctx, h.logger)
	sse := datastar.NewSSE(w, r)

	if status := d.Err(); status != nil {
		if err := h.patchStatus(ctx, sse, status); err != nil {
			logger.Error("patch status panel", "error", err)
		}
		return
	}

	if err := h.patch(ctx, sse, templates.RankedList(templates.TimeSeriesID, "Sales over time", timeSeriesRows(d.TimeSeries))); err != nil {
		logger.Error("patch time series", "error", err)
		return
	}

	err := h.patchSignals(sse, map[string]any{
		"granularity":    d.Granularity,
		"timeSeriesData": d.TimeSeries,
	})
	if err != nil {
		logger.Error("patch time series signals", "error", err)
	}
}
