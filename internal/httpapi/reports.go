package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"vetreport/backend/internal/domain"
	"vetreport/backend/internal/export"
	"vetreport/backend/internal/reporting"
	"vetreport/backend/internal/service"
	"vetreport/backend/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// parseReportQuery reads the shared report parameters. Nothing is rejected
// here; the service normalizes unknown values to defaults.
func parseReportQuery(r *http.Request) domain.ReportQuery {
	q := r.URL.Query()
	return domain.ReportQuery{
		Range:    strings.ToLower(strings.TrimSpace(q.Get("range"))),
		Start:    strings.TrimSpace(q.Get("start")),
		End:      strings.TrimSpace(q.Get("end")),
		Compare:  domain.CompareMode(strings.ToLower(strings.TrimSpace(q.Get("compare")))),
		Mode:     domain.Mode(strings.ToLower(strings.TrimSpace(q.Get("mode")))),
		Category: q.Get("category"),
		Limit:    parsePositiveLimit(q.Get("limit"), reporting.DefaultLimit, reporting.MaxLimit),
	}
}

// reportHandler serves one JSON report. A failed computation still answers
// with the report's zero shape and status 500.
func reportHandler[T any](a *API, name string, run func(context.Context, domain.ReportQuery) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		report, err := run(r.Context(), parseReportQuery(r))
		if err != nil {
			a.reportFailed(w, name, err, report)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func (a *API) reportFailed(w http.ResponseWriter, name string, err error, zero any) {
	if errors.Is(err, store.ErrInvalidQuery) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.metrics.reportFailed(name)
	log.Printf("[httpapi] WARN: report %s failed: %v", name, err)
	writeJSON(w, http.StatusInternalServerError, zero)
}

func (a *API) handleKPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	report, err := a.service.KPIReport(r.Context(), parseReportQuery(r))
	if err != nil {
		a.metrics.reportFailed("kpi")
		log.Printf("[httpapi] WARN: report kpi failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	list, err := a.service.Categories(r.Context())
	if err != nil {
		a.reportFailed(w, "catalog_categories", err, domain.CategoryList{Products: []string{}, Services: []domain.ServiceCategory{}})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleExpiringSoon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	days := parsePositiveLimit(r.URL.Query().Get("days"), service.DefaultExpiringDays, service.MaxExpiringDays)
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if strings.EqualFold(category, "all") {
		category = ""
	}

	report, err := a.service.ExpiringSoon(r.Context(), days, category)
	if err != nil {
		a.reportFailed(w, "expiring_soon", err, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleExport renders the whole workbook into memory before sending any
// byte, so a failure never leaves the client with a partial file.
func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	bundle, err := a.service.ExportBundle(r.Context(), parseReportQuery(r))
	if err != nil {
		a.exportFailed(w, err)
		return
	}

	loc := a.service.Location()
	var buf bytes.Buffer
	if _, err := export.New(bundle, export.Options{Locale: a.locale, Location: loc}).WriteTo(&buf); err != nil {
		a.exportFailed(w, err)
		return
	}
	a.metrics.exported(bundle.Mode)

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(bundle, loc)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[httpapi] WARN: write export: %v", err)
	}
}

func (a *API) exportFailed(w http.ResponseWriter, err error) {
	a.metrics.reportFailed("export")
	log.Printf("[httpapi] WARN: export failed: %v", err)
	http.Error(w, "failed to generate report", http.StatusInternalServerError)
}
