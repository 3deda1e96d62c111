package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"

	"depositscope/internal/errors"
)

// Writer is the trainer's write path. The dashboard never writes; it
// only ever sees completed files because every save goes through a temp
// name and a rename.
type Writer struct {
	layout Layout
}

// NewWriter creates a writer rooted at the data directory.
func NewWriter(root string) Writer { return Writer{layout: NewLayout(root)} }

// Layout exposes the path mapping.
func (w Writer) Layout() Layout { return w.layout }

// SaveJSON writes an indented JSON artifact atomically.
func (w Writer) SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode artifact")
	}
	return w.SaveBytes(path, append(data, '\n'))
}

// SaveText writes a text artifact atomically.
func (w Writer) SaveText(path, content string) error {
	return w.SaveBytes(path, []byte(content))
}

// SaveBytes writes under a temp name then renames into place.
func (w Writer) SaveBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "failed to finalize %s", path)
	}
	return nil
}
