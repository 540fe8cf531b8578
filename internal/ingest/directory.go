package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/quizgen/internal/entity"
)

// CollectDocuments walks root and returns every PDF under it, in walk order.
// Files with identical content are reported once. Unreadable entries are
// recorded with Err and counted as failed; the walk continues.
func CollectDocuments(ctx context.Context, root string, skipHidden bool) ([]Document, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		docs  []Document
		stats DirStats
		seen  = NewDeduper()
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			docs = append(docs, Document{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		doc, err := describe(path)
		if err != nil {
			docs = append(docs, Document{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		if !seen.First(doc.HashHex) {
			stats.Duplicates++
			return nil
		}
		docs = append(docs, doc)
		stats.Collected++
		return nil
	})
	if err != nil {
		return docs, stats, fmt.Errorf("walk: %w", err)
	}
	return docs, stats, nil
}

// LoadDocument reads path into a binary DocumentSource. Files over maxBytes
// (when > 0) are rejected before reading.
func LoadDocument(path string, maxBytes int64) (entity.DocumentSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return entity.DocumentSource{}, err
	}
	if !AllowedExt(filepath.Ext(abs)) {
		return entity.DocumentSource{}, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(abs))
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return entity.DocumentSource{}, err
	}
	if maxBytes > 0 && fi.Size() > maxBytes {
		return entity.DocumentSource{}, fmt.Errorf("%s is %d bytes, the limit is %d", filepath.Base(abs), fi.Size(), maxBytes)
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return entity.DocumentSource{}, err
	}
	return entity.NewBinarySource(filepath.Base(abs), b), nil
}

func describe(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Document{}, err
	}
	return Document{Path: path, Size: n, HashHex: hex.EncodeToString(h.Sum(nil))}, nil
}

// Deduper remembers content hashes already handed out. Safe for concurrent use.
type Deduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{seen: map[string]struct{}{}}
}

// First reports whether hash is seen for the first time.
func (d *Deduper) First(hash string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[hash]; ok {
		return false
	}
	d.seen[hash] = struct{}{}
	return true
}

// HashFile returns the hex sha256 of the file at path.
func HashFile(path string) (string, error) {
	doc, err := describe(path)
	if err != nil {
		return "", err
	}
	return doc.HashHex, nil
}
