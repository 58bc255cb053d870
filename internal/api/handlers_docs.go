package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/sectiongest/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists all documents for a user.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	prefix := fmt.Sprintf("sections/users/%s/documents", userID)
	children, err := s.orchestrator.Store().ListChildren(r.Context(), prefix, 200)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	docs := []map[string]any{}
	for _, child := range children {
		if isMetaKey(child.Key) {
			docs = append(docs, map[string]any{
				"key":   child.Key,
				"value": child.Value,
			})
		}
	}
	jsonBody(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument deletes a document with its chunks, tree and hash index entry.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	res, err := pipeline.PurgeDocument(r.Context(), s.orchestrator.Store(), userID, docID)
	if err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonBody(w, http.StatusOK, map[string]any{
		"doc_id":             docID,
		"chunks_deleted":     res.ChunksDeleted,
		"hash_index_deleted": res.HashIndexDeleted,
	})
}

func isMetaKey(key string) bool {
	return strings.HasSuffix(key, ".meta") || strings.HasSuffix(key, "/meta")
}
