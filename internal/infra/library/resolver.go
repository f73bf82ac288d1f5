// Package library resolves and enumerates video files inside a single root
// directory. All path input from callers goes through Resolve so that
// traversal outside the root is impossible.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/framelens/framelens-engine/internal/domain/entity"
)

// RecursiveMarker asks ListVideoFiles to walk the whole tree.
const RecursiveMarker = "**"

var supportedExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	".m4v": true, ".mts": true, ".mpg": true, ".mpeg": true,
}

// internal directories never surfaced by listings
var hiddenDirs = map[string]bool{
	".framelens_cache": true,
	".framelens_debug": true,
}

type Resolver struct {
	root string
}

// NewResolver validates the root directory and returns a resolver bound to
// it.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("video root is not a directory: %s", abs)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute library root.
func (r *Resolver) Root() string { return r.root }

// Resolve maps a root-relative filename to its identity. It rejects
// traversal outside the root, missing files, directories, and unsupported
// container formats.
func (r *Resolver) Resolve(filename string) (entity.VideoIdentity, error) {
	candidate := filepath.Join(r.root, filepath.FromSlash(filename))
	candidate = filepath.Clean(candidate)

	rel, err := filepath.Rel(r.root, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return entity.VideoIdentity{}, entity.NewError(entity.KindNotFound,
			"access denied: %q resolves outside the video root directory", filename)
	}

	st, err := os.Stat(candidate)
	if err != nil {
		return entity.VideoIdentity{}, entity.NewError(entity.KindNotFound,
			"file not found: %q (use list_videos to see available files)", filename)
	}
	if st.IsDir() {
		return entity.VideoIdentity{}, entity.NewError(entity.KindNotFound, "not a file: %q", filename)
	}
	if !supportedExtensions[strings.ToLower(filepath.Ext(candidate))] {
		return entity.VideoIdentity{}, entity.NewError(entity.KindUnsupportedCodec,
			"unsupported file format %q", filepath.Ext(candidate))
	}

	return entity.VideoIdentity{
		Name:    filepath.ToSlash(rel),
		Path:    candidate,
		Size:    st.Size(),
		ModTime: st.ModTime(),
	}, nil
}

// ListVideoFiles returns root-relative video paths. subdirectory "" lists
// the root only, RecursiveMarker walks the whole tree, anything else lists
// one subdirectory.
func (r *Resolver) ListVideoFiles(subdirectory string) ([]string, error) {
	switch subdirectory {
	case RecursiveMarker:
		return r.listRecursive()
	case "":
		return r.listDir(r.root)
	default:
		sub := filepath.Clean(filepath.Join(r.root, filepath.FromSlash(subdirectory)))
		rel, err := filepath.Rel(r.root, sub)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, entity.NewError(entity.KindNotFound,
				"access denied: %q resolves outside the video root directory", subdirectory)
		}
		st, err := os.Stat(sub)
		if err != nil || !st.IsDir() {
			return nil, entity.NewError(entity.KindNotFound, "not a directory: %q", subdirectory)
		}
		return r.listDir(sub)
	}
}

func (r *Resolver) listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		rel, err := filepath.Rel(r.root, filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out, nil
}

func (r *Resolver) listRecursive() ([]string, error) {
	var out []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if hiddenDirs[d.Name()] || (path != r.root && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !supportedExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return nil
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk video root: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
