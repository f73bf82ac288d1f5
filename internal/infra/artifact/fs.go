// Package artifact persists debug output (intermediate frames, raw
// detection data) so analysis runs can be inspected after the fact.
// Artifacts are a write-only side channel: failures are logged, never
// propagated to the caller.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FSSink writes artifacts under a local directory.
type FSSink struct {
	root   string
	logger *zap.Logger
}

func NewFSSink(root string, logger *zap.Logger) *FSSink {
	return &FSSink{root: root, logger: logger}
}

// Dir allocates a unique directory key for one operation call:
// <video>/<operation>_<timestamp>_<short-id>.
func (s *FSSink) Dir(filename, operation string) string {
	short := uuid.NewString()[:8]
	stamp := time.Now().UTC().Format("20060102T150405")
	return filepath.Join(sanitize(filename), fmt.Sprintf("%s_%s_%s", operation, stamp, short))
}

func (s *FSSink) SaveImage(ctx context.Context, dir, name string, data []byte) error {
	return s.write(filepath.Join(dir, name), data)
}

func (s *FSSink) SaveJSON(ctx context.Context, dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", name, err)
	}
	return s.write(filepath.Join(dir, name), data)
}

func (s *FSSink) write(rel string, data []byte) error {
	path := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", rel, err)
	}
	s.logger.Debug("debug artifact written", zap.String("path", path))
	return nil
}

// sanitize flattens a library-relative video name into one path segment.
func sanitize(filename string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(filename)
}

// Discard drops every artifact. Used when debug output is disabled.
type Discard struct{}

func (Discard) Dir(filename, operation string) string                   { return "" }
func (Discard) SaveImage(context.Context, string, string, []byte) error { return nil }
func (Discard) SaveJSON(context.Context, string, string, any) error     { return nil }
