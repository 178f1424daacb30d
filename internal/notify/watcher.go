package notify

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/attuneai/attune/pkg/types"
)

// ImportWatcher watches the import drop directory and dispatches profile
// exports to the callback as they arrive.
type ImportWatcher struct {
	dir      string
	callback func(userID string, export types.ProfileExport)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewImportWatcher creates a watcher for {dataPath}/import/.
func NewImportWatcher(dataPath string, callback func(userID string, export types.ProfileExport)) *ImportWatcher {
	return &ImportWatcher{
		dir:      filepath.Join(dataPath, "import"),
		callback: callback,
		done:     make(chan struct{}),
	}
}

// Start begins watching. It drains any profile files already present,
// then watches for new ones. Call Stop() to clean up.
func (iw *ImportWatcher) Start() error {
	if err := os.MkdirAll(iw.dir, 0o700); err != nil {
		return err
	}

	iw.drainExisting()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(iw.dir); err != nil {
		_ = w.Close()
		return err
	}
	iw.watcher = w

	go iw.loop()
	log.Printf("notify: watching %s for profile imports", iw.dir)
	return nil
}

// Stop shuts down the watcher.
func (iw *ImportWatcher) Stop() {
	if iw.watcher != nil {
		_ = iw.watcher.Close()
	}
	<-iw.done
}

func (iw *ImportWatcher) loop() {
	defer close(iw.done)
	for {
		select {
		case evt, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&fsnotify.Create != 0 && strings.HasSuffix(evt.Name, ".json") {
				iw.processFile(evt.Name)
			}
		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		}
	}
}

func (iw *ImportWatcher) drainExisting() {
	entries, err := os.ReadDir(iw.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			iw.processFile(filepath.Join(iw.dir, entry.Name()))
		}
	}
}

func (iw *ImportWatcher) processFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // file already consumed by another process
	}
	_ = os.Remove(path)

	var export types.ProfileExport
	if err := json.Unmarshal(data, &export); err != nil {
		log.Printf("notify: invalid profile file %s: %v", filepath.Base(path), err)
		return
	}

	if export.Profile.UserID != "" && iw.callback != nil {
		iw.callback(export.Profile.UserID, export)
	}
}
