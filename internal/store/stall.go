package store

import "hash/fnv"

// hashContent computes a stable 64-bit hash of a pane's captured scrollback,
// used to detect stalls by comparing hashes across reconciliation ticks
// instead of diffing full text each time.
func hashContent(content string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(content))
	return h.Sum64()
}
