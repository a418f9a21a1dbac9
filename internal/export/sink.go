package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sink hands a finished artifact to the user and reports where it went.
type Sink interface {
	Deliver(ctx context.Context, a Artifact) (string, error)
}

// DirSink saves artifacts into a directory. Files appear atomically: a
// failed write never leaves a partial file under the final name.
type DirSink struct {
	Dir string
}

// Deliver writes the artifact and returns its absolute path.
func (d DirSink) Deliver(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".card-term-*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		cleanup()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod artifact: %w", err)
	}

	final := filepath.Join(dir, localName(a.Filename))
	if err := os.Rename(tmpPath, final); err != nil {
		cleanup()
		return "", fmt.Errorf("rename artifact: %w", err)
	}
	if abs, err := filepath.Abs(final); err == nil {
		final = abs
	}
	return final, nil
}

// localName keeps a card name containing path separators inside the output
// directory.
func localName(name string) string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(name)
}
