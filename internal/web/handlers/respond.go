package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ccod-search/internal/search"
)

// SearchRequest is the shared input shape for search and export
// endpoints.
type SearchRequest struct {
	SearchType  string `json:"search_type"`
	SearchValue string `json:"search_value"`
}

// parseSearchRequest decodes and validates the request body. The
// search type defaults to "number" when omitted.
func parseSearchRequest(r *http.Request) (*SearchRequest, string) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "invalid JSON request body"
	}
	if req.SearchType == "" {
		req.SearchType = search.TypeNumber
	}
	req.SearchValue = strings.TrimSpace(req.SearchValue)
	if req.SearchValue == "" {
		return nil, "search value is required"
	}
	switch req.SearchType {
	case search.TypeNumber, search.TypeName, search.TypeAddress, search.TypeDirector:
	default:
		return nil, "unknown search type: " + req.SearchType
	}
	return &req, ""
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeSearchError emits the structured failure shape the UI expects.
func writeSearchError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success":     false,
		"error":       message,
		"results":     []search.Result{},
		"count":       0,
		"suggestions": []search.Suggestion{},
	})
}
