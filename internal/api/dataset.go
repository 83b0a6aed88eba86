package api

import (
	"log"
	"net/http"
)

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	sum, err := s.catalog.Summary()
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// RefreshResponse is the response structure for the refresh endpoint.
type RefreshResponse struct {
	Source   string `json:"source"`
	Status   string `json:"status"`
	Checksum string `json:"checksum,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Refresh(r.Context())
	if err != nil {
		log.Printf("api: dataset refresh failed: %v", err)
		writeJSON(w, http.StatusBadGateway, RefreshResponse{
			Source: s.catalog.Source(),
			Status: "error",
			Error:  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{
		Source:   snap.Source,
		Status:   "ok",
		Checksum: snap.Checksum,
	})
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.store.ListTokens(r.Context())
	if err != nil {
		log.Printf("api: list tokens failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
