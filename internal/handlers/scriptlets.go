package handlers

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

// metadataWindow is how many leading lines of a script are scanned for
// metadata headers.
const metadataWindow = 20

// Scriptlets answers scriptlet-list queries by scanning the scripts
// directory for metadata headers of the form:
//
//	// Name: Open Project
//	// Description: Fuzzy-find a project and open it
type Scriptlets struct {
	Dir string
}

func (h *Scriptlets) Handles(kind protocol.Kind) bool {
	return kind == protocol.KindScriptletList
}

func (h *Scriptlets) Handle(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	q, ok := msg.(protocol.ScriptletList)
	if !ok {
		return nil, fmt.Errorf("unexpected message %s", msg.MessageKind())
	}

	entries, err := os.ReadDir(h.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading scripts dir: %w", err)
	}

	var out []protocol.Scriptlet
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(h.Dir, entry.Name())
		s := readScriptlet(path)
		if s.Name == "" {
			// Fall back to the file name so unannotated scripts still list.
			s.Name = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}
		s.Path = path
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return protocol.ScriptletListResult{
		Type:       protocol.KindScriptletListResult,
		RequestID:  q.RequestID,
		Scriptlets: out,
	}, nil
}

func readScriptlet(path string) protocol.Scriptlet {
	var s protocol.Scriptlet
	f, err := os.Open(path)
	if err != nil {
		return s
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for i := 0; i < metadataWindow && sc.Scan(); i++ {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Name:"):
			s.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		case strings.HasPrefix(line, "Description:"):
			s.Description = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		}
	}
	return s
}
