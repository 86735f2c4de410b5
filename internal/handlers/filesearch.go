// Package handlers provides the local fast-path handlers the router
// consults before forwarding anything to the UI layer. Each handler claims a
// fixed set of kinds and answers them without user interaction.
package handlers

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

const defaultMaxResults = 50

// FileSearch answers file-search queries with a bounded walk of the
// configured roots.
type FileSearch struct {
	Roots      []string
	MaxResults int
}

func (h *FileSearch) Handles(kind protocol.Kind) bool {
	return kind == protocol.KindFileSearch
}

func (h *FileSearch) Handle(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	q, ok := msg.(protocol.FileSearch)
	if !ok {
		return nil, fmt.Errorf("unexpected message %s", msg.MessageKind())
	}

	roots := h.Roots
	if q.Root != "" {
		roots = []string{q.Root}
	}
	limit := h.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}

	needle := strings.ToLower(q.Query)
	paths := make([]string, 0, limit)

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable entries are skipped, not fatal.
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.Contains(strings.ToLower(d.Name()), needle) {
				paths = append(paths, path)
				if len(paths) >= limit {
					return filepath.SkipAll
				}
			}
			return nil
		})
		if err != nil && err != filepath.SkipAll {
			return nil, fmt.Errorf("searching %s: %w", root, err)
		}
		if len(paths) >= limit {
			break
		}
	}

	return protocol.FileSearchResult{
		Type:      protocol.KindFileSearchResult,
		RequestID: q.RequestID,
		Paths:     paths,
	}, nil
}
