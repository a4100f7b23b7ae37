package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"event_0001", "event_0001"},
		{"run 12 (bx 7)", "run_12_bx_7"},
		{"../../etc/passwd", "etc_passwd"},
		{"...", "unknown"},
		{"", "unknown"},
		{"minbias-2026.v3", "minbias-2026.v3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}

	long := SanitizeFilename(strings.Repeat("a", 300))
	assert.Len(t, long, maxNameLen)
}

func TestWithinDirectory(t *testing.T) {
	tmp := t.TempDir()
	safe := filepath.Join(tmp, "plots")
	outside := filepath.Join(tmp, "elsewhere")
	require.NoError(t, os.MkdirAll(safe, 0755))
	require.NoError(t, os.MkdirAll(outside, 0755))
	require.NoError(t, os.Symlink(outside, filepath.Join(safe, "link")))

	assert.NoError(t, WithinDirectory(filepath.Join(safe, "evt_xz.png"), safe))
	assert.NoError(t, WithinDirectory(filepath.Join(safe, "sub", "new.png"), safe))
	assert.Error(t, WithinDirectory(filepath.Join(safe, "..", "evt.png"), safe))
	assert.Error(t, WithinDirectory(filepath.Join(safe, "link", "evt.png"), safe))
	assert.Error(t, WithinDirectory(filepath.Join(safe, "x.png"), filepath.Join(tmp, "missing")))
}

func TestArtifactPath(t *testing.T) {
	dir := t.TempDir()

	p, err := ArtifactPath(dir, "../evt 1", "xz.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evt_1_xz.png"), p)
}
