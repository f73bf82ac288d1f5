package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFSSinkWritesArtifacts(t *testing.T) {
	root := t.TempDir()
	s := NewFSSink(root, zap.NewNop())
	ctx := context.Background()

	dir := s.Dir("clips/walk.mp4", "detect_motion_events")
	assert.NotContains(t, filepath.Base(filepath.Dir(filepath.Join(root, dir))), "/")

	require.NoError(t, s.SaveImage(ctx, dir, "signal.png", []byte{0x89, 'P', 'N', 'G'}))
	require.NoError(t, s.SaveJSON(ctx, dir, "events.json", map[string]int{"events": 3}))

	img, err := os.ReadFile(filepath.Join(root, dir, "signal.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img)

	raw, err := os.ReadFile(filepath.Join(root, dir, "events.json"))
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 3, decoded["events"])
}

func TestFSSinkDirsAreUnique(t *testing.T) {
	s := NewFSSink(t.TempDir(), zap.NewNop())

	a := s.Dir("clip.mp4", "get_video_overview")
	b := s.Dir("clip.mp4", "get_video_overview")
	assert.NotEqual(t, a, b)
}

func TestSanitizeFlattensSubdirectories(t *testing.T) {
	assert.Equal(t, "clips_walk.mp4", sanitize("clips/walk.mp4"))
	assert.Equal(t, "a_b_c.mp4", sanitize(`a/b\c.mp4`))
}

func TestDiscardSink(t *testing.T) {
	var d Discard
	assert.Empty(t, d.Dir("x.mp4", "op"))
	assert.NoError(t, d.SaveImage(context.Background(), "", "a.png", nil))
	assert.NoError(t, d.SaveJSON(context.Background(), "", "a.json", nil))
}
