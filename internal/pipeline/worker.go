package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/sectiongest/internal/chunker"
	"github.com/dgallion1/sectiongest/internal/doctree"
	"github.com/dgallion1/sectiongest/internal/parser"
	"github.com/dgallion1/sectiongest/internal/pathstore"
)

// Store is the subset of the pathstore API the pipeline and handlers use.
type Store interface {
	PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error
	GetNode(ctx context.Context, key string) (*pathstore.NodeResponse, error)
	DeleteNode(ctx context.Context, key string, recursive bool) error
	ListChildren(ctx context.Context, key string, limit int) ([]pathstore.ChildNode, error)
	PutLink(ctx context.Context, req pathstore.LinkRequest) error
}

// DocPrefix returns the key prefix under which a document's nodes live.
func DocPrefix(userID, docID string) string {
	return fmt.Sprintf("sections/users/%s/documents/%s", userID, docID)
}

// HashIndexPrefix returns the dedup index prefix for a content hash.
func HashIndexPrefix(userID, hash string) string {
	return fmt.Sprintf("sections/users/%s/documents/by_hash/%s", userID, hash)
}

// ChunkPath returns the key of a stored chunk.
func ChunkPath(userID, docID string, index int) string {
	return DocPrefix(userID, docID) + "/chunks/" + strconv.Itoa(index)
}

// Worker processes a single document job.
type Worker struct {
	store       Store
	splitter    *chunker.Splitter
	log         *slog.Logger
	stats       *LatencyStats
	counters    *Counters
	pdfFallback bool
	backoff     func(int) time.Duration

	maxConcurrentStore int
}

func NewWorker(store Store, splitter *chunker.Splitter, log *slog.Logger, stats *LatencyStats, counters *Counters, maxStore int, pdfFallback bool) *Worker {
	if maxStore <= 0 {
		maxStore = 1
	}
	return &Worker{
		store:              store,
		splitter:           splitter,
		log:                log,
		stats:              stats,
		counters:           counters,
		pdfFallback:        pdfFallback,
		backoff:            Backoff,
		maxConcurrentStore: maxStore,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "user_id", job.UserID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.pdfFallback)
	if err != nil {
		log.Error("unsupported format", "error", err)
		w.fail(job, "parsing", err.Error())
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFileData()
	if err != nil {
		log.Error("parse failed", "error", err)
		w.fail(job, "parsing", fmt.Sprintf("parse: %s", err))
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}
	job.setContentHash(ContentHashHex([]byte(doc.Text)))

	// Phase 1.5: Dedup check
	if !job.Force {
		exists, existingDocID, err := w.checkDuplicate(ctx, job)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if exists {
			log.Info("duplicate document, skipping", "existing_doc_id", existingDocID)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	start := time.Now()
	chunks, forest, err := w.splitter.SplitWithTree(doc.Text)
	if w.stats != nil {
		w.stats.Record(time.Since(start))
	}
	if err != nil {
		log.Error("chunking failed", "error", err)
		w.fail(job, "chunking", fmt.Sprintf("chunk: %s", err))
		return
	}
	job.SetSections(len(forest.Placed), len(forest.Discarded))
	job.SetTotalChunks(len(chunks))
	log.Info("chunked document", "sections", len(forest.Placed), "discarded", len(forest.Discarded), "chunks", len(chunks))

	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		w.fail(job, "chunking", "no section content")
		return
	}

	// Phase 3: Store chunks with bounded concurrency.
	job.SetStatus(StatusStoring, "storing")
	if job.Force {
		// A forced re-ingest may produce fewer chunks than the stored version.
		res, err := PurgeDocument(ctx, w.store, job.UserID, job.DocID)
		if err != nil {
			log.Error("purge previous version failed", "error", err)
			w.fail(job, "storing", fmt.Sprintf("purge: %s", err))
			return
		}
		log.Info("purged previous version", "chunks", res.ChunksDeleted, "hash_index", res.HashIndexDeleted)
	}
	stored := w.storeChunks(ctx, log, job, chunks)
	storedCount := 0
	for _, ok := range stored {
		if ok {
			storedCount++
		}
	}
	hadErrors := storedCount < len(chunks)
	w.linkParts(ctx, log, job, chunks, stored)
	log.Info("storage complete", "stored", storedCount, "total", len(chunks))

	docPrefix := DocPrefix(job.UserID, job.DocID)
	source := "sectiongest:" + job.DocID

	treeErr := w.store.PutNode(ctx, docPrefix+"/tree", pathstore.NodeRequest{
		Value:      forest.DocTree(doc.Title),
		MemoryType: "metacognitive",
		Salience:   0.1,
		Source:     source,
	})
	if treeErr != nil {
		log.Warn("tree write failed", "error", treeErr)
	}

	metaErr := w.store.PutNode(ctx, docPrefix+"/meta", pathstore.NodeRequest{
		Value: map[string]any{
			"filename":         job.Filename,
			"title":            doc.Title,
			"content_hash":     job.ContentHash,
			"sections":         len(forest.Placed),
			"discarded_titles": len(forest.Discarded),
			"total_chunks":     len(chunks),
			"chunks_stored":    storedCount,
			"max_words":        w.splitter.MaxWords(),
			"created_at":       job.CreatedAt.Format(time.RFC3339),
		},
		MemoryType: "metacognitive",
		Salience:   0.5,
		Source:     source,
	})
	if metaErr != nil {
		log.Error("meta write failed", "error", metaErr)
		job.AddError(fmt.Sprintf("meta: %s", metaErr))
	}

	hashPath := HashIndexPrefix(job.UserID, job.ContentHash) + "/" + job.DocID
	hashErr := w.store.PutNode(ctx, hashPath, pathstore.NodeRequest{
		Value: map[string]any{
			"filename":   job.Filename,
			"created_at": job.CreatedAt.Format(time.RFC3339),
		},
		MemoryType: "metacognitive",
		Salience:   0.1,
		Source:     source,
	})
	if hashErr != nil {
		log.Error("hash index write failed", "error", hashErr)
	}

	if w.counters != nil {
		w.counters.add(len(forest.Placed), len(forest.Discarded), storedCount, storedCount == 0)
	}

	switch {
	case hadErrors && storedCount > 0:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, "storing")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

func (w *Worker) fail(job *Job, phase, msg string) {
	job.AddError(msg)
	job.SetStatus(StatusFailed, phase)
	if w.counters != nil {
		w.counters.add(0, 0, 0, true)
	}
}

// storeChunks writes every chunk and reports which ones were stored.
func (w *Worker) storeChunks(ctx context.Context, log *slog.Logger, job *Job, chunks []doctree.Chunk) []bool {
	type storeResult struct {
		idx int
		err error
	}
	results := make(chan storeResult, len(chunks))
	sem := make(chan struct{}, w.maxConcurrentStore)

	for i, c := range chunks {
		sem <- struct{}{}
		go func(i int, c doctree.Chunk) {
			defer func() { <-sem }()
			err := retry(ctx, log, w.backoff, func() error {
				return w.store.PutNode(ctx, ChunkPath(job.UserID, job.DocID, c.Index), pathstore.NodeRequest{
					Value: map[string]any{
						"text":       c.Text,
						"breadcrumb": c.Breadcrumb,
						"part":       c.Part,
						"parts":      c.Parts,
						"index":      c.Index,
						"source": map[string]any{
							"type":     "document",
							"doc_id":   job.DocID,
							"filename": job.Filename,
						},
					},
					MemoryType: "semantic",
					Salience:   0.3,
					Source:     "sectiongest:" + job.DocID,
				})
			})
			results <- storeResult{idx: i, err: err}
		}(i, c)
	}

	stored := make([]bool, len(chunks))
	for range chunks {
		r := <-results
		if r.err != nil {
			log.Error("store failed", "chunk", r.idx, "error", r.err)
			job.AddError(fmt.Sprintf("store chunk %d: %s", r.idx, r.err))
			continue
		}
		stored[r.idx] = true
		job.IncrChunksStored()
	}
	return stored
}

// linkParts links each stored part of a split section to the part before it.
func (w *Worker) linkParts(ctx context.Context, log *slog.Logger, job *Job, chunks []doctree.Chunk, stored []bool) {
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Part == 1 || !stored[i] || !stored[i-1] {
			continue
		}
		err := w.store.PutLink(ctx, pathstore.LinkRequest{
			From:    ChunkPath(job.UserID, job.DocID, chunks[i-1].Index),
			To:      ChunkPath(job.UserID, job.DocID, chunks[i].Index),
			Weight:  1,
			Summary: fmt.Sprintf("part %d/%d", chunks[i].Part, chunks[i].Parts),
		})
		if err != nil {
			log.Warn("part link failed", "chunk", chunks[i].Index, "error", err)
		}
	}
}

// checkDuplicate checks if this content hash already exists for the user.
func (w *Worker) checkDuplicate(ctx context.Context, job *Job) (bool, string, error) {
	children, err := w.store.ListChildren(ctx, HashIndexPrefix(job.UserID, job.ContentHash), 1)
	if err != nil {
		return false, "", err
	}
	if len(children) == 0 {
		return false, "", nil
	}
	return true, lastSegment(children[0].Key), nil
}

// lastSegment returns the final component of a dotted or slashed key.
func lastSegment(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '.' || r == '/' })
	if len(parts) == 0 {
		return key
	}
	return parts[len(parts)-1]
}
