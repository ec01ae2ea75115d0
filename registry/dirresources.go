package registry

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
)

// DirResources serves the regular files of a single directory as resources.
// A filesystem watcher keeps the listing current, so a server restarted less
// often than its content changes still lists fresh files. Reads always go to
// disk; lastModified is taken from the file's mtime.
//
// The resource URI for a file is uriPrefix + filename. Subdirectories and
// dotfiles are ignored.
type DirResources struct {
	dir       string
	uriPrefix string
	pageSize  int

	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	files map[string]time.Time // filename -> mtime
}

// NewDirResources constructs a DirResources over dir and starts its watcher.
// Callers must Close it when done.
func NewDirResources(dir, uriPrefix string, opts ...ContainerOption) (*DirResources, error) {
	cfg := containerConfig{pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create directory watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	dr := &DirResources{
		dir:       dir,
		uriPrefix: uriPrefix,
		pageSize:  cfg.pageSize,
		watcher:   watcher,
		files:     make(map[string]time.Time),
	}
	if err := dr.rescan(); err != nil {
		watcher.Close()
		return nil, err
	}
	go dr.watch()
	return dr, nil
}

// Close stops the directory watcher.
func (dr *DirResources) Close() error {
	return dr.watcher.Close()
}

func (dr *DirResources) rescan() error {
	entries, err := os.ReadDir(dr.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dr.dir, err)
	}
	files := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files[e.Name()] = info.ModTime()
	}
	dr.mu.Lock()
	dr.files = files
	dr.mu.Unlock()
	return nil
}

func (dr *DirResources) watch() {
	for {
		select {
		case ev, ok := <-dr.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				// Coarse but correct: re-list the directory on any change.
				_ = dr.rescan()
			}
		case _, ok := <-dr.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// ListResources implements ResourcesCapability.
func (dr *DirResources) ListResources(ctx context.Context, cursor *string) (Page[mcp.Resource], error) {
	dr.mu.RLock()
	names := make([]string, 0, len(dr.files))
	for name := range dr.files {
		names = append(names, name)
	}
	dr.mu.RUnlock()
	sort.Strings(names)

	resources := make([]mcp.Resource, 0, len(names))
	for _, name := range names {
		resources = append(resources, mcp.Resource{
			URI:      dr.uriPrefix + name,
			Name:     name,
			MimeType: mimeTypeFor(name),
		})
	}
	return pageSlice(resources, cursor, dr.pageSize), nil
}

// ListResourceTemplates implements ResourcesCapability. Directory resources
// are concrete files, so no templates are advertised.
func (dr *DirResources) ListResourceTemplates(ctx context.Context, cursor *string) (Page[mcp.ResourceTemplate], error) {
	return NewPage[mcp.ResourceTemplate](nil), nil
}

// ReadResource implements ResourcesCapability.
func (dr *DirResources) ReadResource(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	name, ok := strings.CutPrefix(uri, dr.uriPrefix)
	if !ok || name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}

	path := filepath.Join(dr.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []mcp.ResourceContents{{
		URI:          uri,
		MimeType:     mimeTypeFor(name),
		Text:         string(data),
		LastModified: info.ModTime().UTC().Format(time.RFC3339),
	}}, nil
}

func mimeTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		// Strip charset parameters; resource listings carry the bare type.
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return t
	}
	return "text/plain"
}
