package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// LoaderConfig configures how article sources are discovered.
type LoaderConfig struct {
	// Pattern limits discovered files to those matching the glob (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
}

// Loader turns paths inside an fs.FS into article documents with front matter.
type Loader struct {
	fs        fs.FS
	pattern   string
	recursive bool
}

// NewLoader constructs a Loader using the provided filesystem and configuration.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := cfg.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}
	return &Loader{
		fs:        filesystem,
		pattern:   pattern,
		recursive: cfg.Recursive,
	}
}

// LoadFile reads and parses a single article source.
func (l *Loader) LoadFile(ctx context.Context, name string) (*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := cleanRelative(name)
	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", rel, err)
	}
	info, err := fs.Stat(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", rel, err)
	}
	return BuildDocument(rel, data, info.ModTime())
}

// LoadDirectory parses every matching file under dir, sorted by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := cleanRelative(dir)
	var docs []*interfaces.Document
	walkErr := fs.WalkDir(l.fs, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && !l.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if ok, _ := path.Match(l.pattern, path.Base(p)); !ok {
			return nil
		}
		doc, err := l.LoadFile(ctx, p)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("markdown loader walk %s: %w", root, walkErr)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].FilePath < docs[j].FilePath
	})
	return docs, nil
}

func cleanRelative(name string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if trimmed == "" {
		return "."
	}
	cleaned := path.Clean(strings.TrimLeft(trimmed, "/"))
	if cleaned == "" {
		return "."
	}
	return cleaned
}
