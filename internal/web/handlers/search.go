package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ccod-search/internal/observability"
	"github.com/ccod-search/internal/search"
)

// SearchHandler handles the property search endpoint.
type SearchHandler struct {
	Store     *search.Store
	Directors search.OfficerClient // nil when no Companies House key is configured
	Log       zerolog.Logger
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, problem := parseSearchRequest(r)
	if problem != "" {
		writeSearchError(w, http.StatusBadRequest, problem)
		return
	}

	observability.SearchQueries.WithLabelValues(req.SearchType).Inc()
	ctx := r.Context()

	switch req.SearchType {
	case search.TypeName:
		results, suggestions, err := h.Store.ByCompanyName(ctx, req.SearchValue)
		if err != nil {
			h.fail(w, req, err)
			return
		}
		h.ok(w, req, "company_name", results, suggestions, nil)

	case search.TypeAddress:
		results, err := h.Store.ByAddress(ctx, req.SearchValue)
		if err != nil {
			h.fail(w, req, err)
			return
		}
		h.ok(w, req, "address", results, nil, nil)

	case search.TypeDirector:
		if h.Directors == nil {
			writeSearchError(w, http.StatusBadRequest,
				"Companies House API key not configured; director search is unavailable")
			return
		}
		results, directors, suggestions, err := h.Store.ByDirector(ctx, h.Directors, req.SearchValue)
		if err != nil {
			if errors.Is(err, search.ErrNoDirectorsFound) || errors.Is(err, search.ErrNoAppointments) {
				writeJSON(w, http.StatusOK, map[string]interface{}{
					"success":         false,
					"error":           err.Error(),
					"results":         []search.Result{},
					"count":           0,
					"suggestions":     orEmptySuggestions(suggestions),
					"directors_found": orEmptyDirectors(directors),
				})
				return
			}
			h.fail(w, req, err)
			return
		}
		h.ok(w, req, "director_name", results, suggestions, directors)

	default: // search.TypeNumber
		results, err := h.Store.ByCompanyNumber(ctx, req.SearchValue)
		if err != nil {
			h.fail(w, req, err)
			return
		}
		h.ok(w, req, "company_number", results, nil, nil)
	}
}

// ok writes the success envelope. searchKey names the echoed input
// field per search type (company_number, company_name, address,
// director_name), matching what the UI binds to.
func (h *SearchHandler) ok(w http.ResponseWriter, req *SearchRequest, searchKey string, results []search.Result, suggestions []search.Suggestion, directors []search.DirectorMatch) {
	payload := map[string]interface{}{
		"success":     true,
		"count":       len(results),
		"results":     orEmptyResults(results),
		"suggestions": orEmptySuggestions(suggestions),
		"search_type": req.SearchType,
		searchKey:     req.SearchValue,
	}
	if req.SearchType == search.TypeDirector {
		payload["directors_found"] = orEmptyDirectors(directors)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *SearchHandler) fail(w http.ResponseWriter, req *SearchRequest, err error) {
	if errors.Is(err, search.ErrEmptyValue) {
		writeSearchError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.Log.Error().Err(err).Str("search_type", req.SearchType).Msg("search failed")
	writeSearchError(w, http.StatusInternalServerError, "search failed")
}

func orEmptyResults(results []search.Result) []search.Result {
	if results == nil {
		return []search.Result{}
	}
	return results
}

func orEmptySuggestions(suggestions []search.Suggestion) []search.Suggestion {
	if suggestions == nil {
		return []search.Suggestion{}
	}
	return suggestions
}

func orEmptyDirectors(directors []search.DirectorMatch) []search.DirectorMatch {
	if directors == nil {
		return []search.DirectorMatch{}
	}
	return directors
}
