package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/sectiongest/internal/chunker"
	"github.com/dgallion1/sectiongest/internal/doctree"
	"github.com/dgallion1/sectiongest/internal/parser"
	"github.com/dgallion1/sectiongest/internal/section"
)

type chunkResponse struct {
	Title     string           `json:"title"`
	Sections  int              `json:"sections"`
	Discarded []string         `json:"discarded_titles"`
	Chunks    []doctree.Chunk  `json:"chunks"`
	Tree      *doctree.DocTree `json:"tree,omitempty"`
}

// handleChunk splits one document synchronously. The document is either the
// "file" field of a multipart form or the raw request body, in which case the
// filename query parameter selects the parser.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	var (
		data     []byte
		filename string
		err      error
	)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		filename = sanitizeFilename(header.Filename)
		data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
	} else {
		filename = sanitizeFilename(r.URL.Query().Get("filename"))
		if filepath.Ext(filename) == "" {
			filename += ".txt"
		}
		data, err = io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read body", http.StatusBadRequest)
			return
		}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	p, err := parser.ForFile(filename, s.cfg.PDFFallbackPdftotext)
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "parse failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if title := param(r, "title"); title != "" {
		doc.Title = title
	}

	splitter := s.orchestrator.Splitter()
	if v := param(r, "max_words"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "max_words must be a positive integer", http.StatusBadRequest)
			return
		}
		splitter = chunker.New(
			chunker.WithMaxWords(n),
			chunker.WithGrammar(splitter.Grammar()),
			chunker.WithLogger(s.log),
		)
	}

	start := time.Now()
	chunks, forest, err := splitter.SplitWithTree(doc.Text)
	s.orchestrator.Stats().Record(time.Since(start))
	if err != nil {
		s.writeChunkError(w, filename, err)
		return
	}

	resp := chunkResponse{
		Title:     doc.Title,
		Sections:  len(forest.Placed),
		Discarded: forest.Discarded,
		Chunks:    chunks,
	}
	if resp.Discarded == nil {
		resp.Discarded = []string{}
	}
	if resp.Chunks == nil {
		resp.Chunks = []doctree.Chunk{}
	}
	if param(r, "tree") == "true" {
		resp.Tree = forest.DocTree(doc.Title)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeChunkError maps chunking failures to responses. Documents without
// usable structure are the caller's problem, anything else is ours.
func (s *Server) writeChunkError(w http.ResponseWriter, filename string, err error) {
	var lineErr *chunker.LineTooLongError
	switch {
	case errors.Is(err, section.ErrNoSectionsFound):
		jsonBody(w, http.StatusUnprocessableEntity, map[string]any{
			"error": err.Error(),
			"code":  "no_sections_found",
		})
	case errors.As(err, &lineErr):
		jsonBody(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  err.Error(),
			"code":   "line_too_long",
			"header": lineErr.Header,
			"line":   lineErr.Line,
			"words":  lineErr.Words,
			"budget": lineErr.Budget,
		})
	default:
		s.log.Error("chunking failed", "filename", filename, "error", err)
		jsonError(w, "chunking failed: "+err.Error(), http.StatusInternalServerError)
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mt, "multipart/")
}

// param reads a form field from a parsed multipart form, or a query parameter
// when the document came in as the raw body.
func param(r *http.Request, key string) string {
	if r.MultipartForm != nil {
		return r.FormValue(key)
	}
	return r.URL.Query().Get(key)
}
