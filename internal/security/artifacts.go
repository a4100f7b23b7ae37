// Package security keeps generated artifacts (plots, charts) inside the
// output directory the user asked for, whatever the event file was called.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxNameLen bounds the sanitised part of an artifact file name.
const maxNameLen = 128

// SanitizeFilename maps an arbitrary string onto ASCII letters, digits,
// dot, underscore and dash. Runs of other characters become a single
// underscore and leading or trailing dots and underscores are trimmed.
// An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// WithinDirectory returns an error unless path resolves inside dir.
// Symlinks are resolved for path itself or, when it does not exist yet,
// for its nearest existing parent.
func WithinDirectory(path, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory path: %w", err)
	}
	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalDir, canonicalize(absPath))
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}

func canonicalize(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}
	for p := filepath.Dir(absPath); ; p = filepath.Dir(p) {
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			rest, _ := filepath.Rel(p, absPath)
			return filepath.Join(resolved, rest)
		}
		if filepath.Dir(p) == p {
			return absPath
		}
	}
}

// ArtifactPath joins dir with a file named <name>_<suffix> where name is
// sanitised, and checks the result stays inside dir. dir must exist.
func ArtifactPath(dir, name, suffix string) (string, error) {
	path := filepath.Join(dir, SanitizeFilename(name)+"_"+suffix)
	if err := WithinDirectory(path, dir); err != nil {
		return "", err
	}
	return path, nil
}
