// Package notify moves profile exports between processes through a shared
// drop directory: the CLI writes export files, the server's watcher picks
// them up and imports them.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/attuneai/attune/pkg/types"
)

// ExportWriter drops profile export files into {dataPath}/import/ for a
// running server to pick up.
type ExportWriter struct {
	dir string
}

// NewExportWriter creates a writer targeting {dataPath}/import/.
func NewExportWriter(dataPath string) *ExportWriter {
	return &ExportWriter{dir: filepath.Join(dataPath, "import")}
}

// Drop writes a profile export file. Safe to call concurrently. The file is
// written to a temp name first so the watcher never reads a partial file.
func (w *ExportWriter) Drop(export types.ProfileExport) error {
	if export.Profile.UserID == "" {
		return fmt.Errorf("notify: export has no user ID")
	}
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("notify: mkdir %s: %w", w.dir, err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("notify: marshal export: %w", err)
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeID(export.Profile.UserID))
	tmp := filepath.Join(w.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(w.dir, name+".json"))
}

// sanitizeID replaces characters unsafe for filenames.
func sanitizeID(id string) string {
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		if id[i] == '/' || id[i] == ':' {
			out[i] = '_'
		} else {
			out[i] = id[i]
		}
	}
	return string(out)
}
