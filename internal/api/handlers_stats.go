package api

import (
	"net/http"
)

func (s *Server) handleChunkingStats(w http.ResponseWriter, r *http.Request) {
	jsonBody(w, http.StatusOK, map[string]any{
		"max_words":   s.orchestrator.Splitter().MaxWords(),
		"grammar":     s.orchestrator.Splitter().Grammar().Name,
		"queue_depth": s.orchestrator.QueueDepth(),
		"latency":     s.orchestrator.Stats().Snapshot(),
		"totals":      s.orchestrator.Counters().Snapshot(),
	})
}
