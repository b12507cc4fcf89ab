// Package reporthttp exposes a report.Provider over HTTP.
//
// Routes serves the report wire document on a chi router; Client is the
// matching report.Provider that fetches from such an endpoint. Together
// they let a view run against a remote backend with the same semantics
// as an in-process provider.
package reporthttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reportkit-dev/reportkit/pkg/query"
	"github.com/reportkit-dev/reportkit/pkg/report"
)

// HandlerConfig configures the report endpoint.
type HandlerConfig struct {
	// Provider serves the data. Required.
	Provider report.Provider

	// DataKey names the response field holding the row array.
	// Defaults to "rows".
	DataKey string

	// AllowedFilterKeys whitelists the filter query parameters.
	AllowedFilterKeys []string

	// Logger defaults to slog.Default() scoped to this component.
	Logger *slog.Logger
}

func (c *HandlerConfig) normalize() {
	if c.DataKey == "" {
		c.DataKey = "rows"
	}
	if c.Logger == nil {
		c.Logger = slog.Default().With("component", "reporthttp")
	}
}

// Routes returns a chi router serving GET /report.
//
// The query string is decoded with the same clamping and whitelisting as
// the view itself, so a malformed request degrades to a valid one
// instead of failing.
func Routes(cfg HandlerConfig) chi.Router {
	cfg.normalize()
	r := chi.NewRouter()
	r.Get("/report", getReport(cfg))
	return r
}

func getReport(cfg HandlerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := query.Decode(r.URL.RawQuery, cfg.AllowedFilterKeys)
		params := report.Params{Page: dec.Page, Limit: dec.Limit, Filters: dec.Filters}

		res, err := cfg.Provider.GetReport(r.Context(), params)
		if err != nil || res == nil {
			if err == nil {
				err = report.ErrMalformed
			}
			cfg.Logger.Error("report request failed", "query", r.URL.RawQuery, "error", err)
			writeError(w, http.StatusBadGateway, "report fetch failed")
			return
		}

		body, err := report.MarshalDocument(res, cfg.DataKey)
		if err != nil {
			cfg.Logger.Error("report encode failed", "error", err)
			writeError(w, http.StatusInternalServerError, "report encode failed")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
