// Package blob provides object storage for uploaded video files.
package blob

import "context"

// Store writes and reads video blobs. Keys are slash-separated paths of the
// form <accountID>/<fileID><ext>. Writes are write-once by convention; no
// overwrite protection is enforced.
type Store interface {
	// Put writes a blob under the given key with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get reads a blob back. Returns an error if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes a blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
