package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ccod-search/internal/export"
	"github.com/ccod-search/internal/search"
)

// ExportHandler serializes full search result sets as downloadable
// CSV or JSON. No pagination: the whole result set goes out in one
// response, and zero results still produce a valid file.
type ExportHandler struct {
	Store     *search.Store
	Directors search.OfficerClient
	Log       zerolog.Logger
}

// ExportCSV handles POST /api/export/csv.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	req, results, done := h.runSearch(w, r)
	if done {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, results); err != nil {
		h.Log.Error().Err(err).Msg("CSV export failed")
		writeSearchError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := export.Filename(req.SearchType, req.SearchValue, "csv")
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(buf.Bytes())
}

// ExportJSON handles POST /api/export/json.
func (h *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	req, results, done := h.runSearch(w, r)
	if done {
		return
	}

	body, err := export.MarshalJSON(req.SearchType, req.SearchValue, results)
	if err != nil {
		h.Log.Error().Err(err).Msg("JSON export failed")
		writeSearchError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := export.Filename(req.SearchType, req.SearchValue, "json")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(body)
}

// runSearch re-executes the equivalent search for an export request.
// The boolean is true when a response has already been written.
func (h *ExportHandler) runSearch(w http.ResponseWriter, r *http.Request) (*SearchRequest, []search.Result, bool) {
	req, problem := parseSearchRequest(r)
	if problem != "" {
		writeSearchError(w, http.StatusBadRequest, problem)
		return nil, nil, true
	}

	ctx := r.Context()
	var (
		results []search.Result
		err     error
	)

	switch req.SearchType {
	case search.TypeName:
		results, _, err = h.Store.ByCompanyName(ctx, req.SearchValue)
	case search.TypeAddress:
		results, err = h.Store.ByAddress(ctx, req.SearchValue)
	case search.TypeDirector:
		if h.Directors == nil {
			writeSearchError(w, http.StatusBadRequest,
				"Companies House API key not configured; director search is unavailable")
			return nil, nil, true
		}
		results, _, _, err = h.Store.ByDirector(ctx, h.Directors, req.SearchValue)
		// A director search that resolved no companies still exports a
		// valid empty file.
		if errors.Is(err, search.ErrNoDirectorsFound) || errors.Is(err, search.ErrNoAppointments) {
			err = nil
		}
	default:
		results, err = h.Store.ByCompanyNumber(ctx, req.SearchValue)
	}

	if err != nil {
		if errors.Is(err, search.ErrEmptyValue) {
			writeSearchError(w, http.StatusBadRequest, err.Error())
			return nil, nil, true
		}
		h.Log.Error().Err(err).Str("search_type", req.SearchType).Msg("export search failed")
		writeSearchError(w, http.StatusInternalServerError, "export failed")
		return nil, nil, true
	}

	return req, results, false
}
