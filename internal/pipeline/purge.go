package pipeline

import (
	"context"
	"fmt"
)

// PurgeResult reports what PurgeDocument removed.
type PurgeResult struct {
	ChunksDeleted    int  `json:"chunks_deleted"`
	HashIndexDeleted bool `json:"hash_index_deleted"`
}

// PurgeDocument removes a stored document: its chunks, tree and meta, and the
// dedup index entry for the content hash recorded in its meta.
func PurgeDocument(ctx context.Context, store Store, userID, docID string) (PurgeResult, error) {
	var res PurgeResult
	docPrefix := DocPrefix(userID, docID)

	chunks, err := store.ListChildren(ctx, docPrefix+"/chunks", 10000)
	if err != nil {
		return res, fmt.Errorf("list chunks: %w", err)
	}
	res.ChunksDeleted = len(chunks)

	// The hash lives in meta, so read it before the prefix is removed.
	res.HashIndexDeleted = deleteHashIndex(ctx, store, userID, docID)

	if err := store.DeleteNode(ctx, docPrefix, true); err != nil {
		return res, fmt.Errorf("delete document: %w", err)
	}
	return res, nil
}

func deleteHashIndex(ctx context.Context, store Store, userID, docID string) bool {
	meta, err := store.GetNode(ctx, DocPrefix(userID, docID)+"/meta")
	if err != nil || meta == nil {
		return false
	}
	metaMap, ok := meta.Value.(map[string]any)
	if !ok {
		return false
	}
	hash, _ := metaMap["content_hash"].(string)
	if hash == "" {
		return false
	}
	return store.DeleteNode(ctx, HashIndexPrefix(userID, hash)+"/"+docID, false) == nil
}
