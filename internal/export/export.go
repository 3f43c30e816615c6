// Package export serializes session snapshots. JSON and YAML go to plain
// files; the sqlite format appends to a local archive database.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stellarlinkco/daymate/internal/session"
)

type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// ArchiveFile is the database name used for sqlite exports.
const ArchiveFile = "daymate-exports.db"

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts the format names and their common aliases. An empty
// name means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Encode writes snap as an indented, human-diffable document. Map keys come
// out sorted in both formats.
func Encode(w io.Writer, snap session.Snapshot, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q cannot be streamed", ErrUnknownFormat, f)
}

func Decode(r io.Reader, f Format) (session.Snapshot, error) {
	var snap session.Snapshot
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return session.Snapshot{}, fmt.Errorf("decode json snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return session.Snapshot{}, fmt.Errorf("decode yaml snapshot: %w", err)
		}
	default:
		return session.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return snap, nil
}

// Writer places exports in a directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Dir() string { return w.dir }

// Export stores snap and returns the path written.
func (w *Writer) Export(ctx context.Context, snap session.Snapshot, f Format) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	if f == FormatSQLite {
		path := filepath.Join(w.dir, ArchiveFile)
		archive, err := OpenArchive(path)
		if err != nil {
			return "", err
		}
		defer archive.Close()
		if err := archive.Save(ctx, snap); err != nil {
			return "", err
		}
		return path, nil
	}

	var buf bytes.Buffer
	if err := Encode(&buf, snap, f); err != nil {
		return "", err
	}
	name := fmt.Sprintf("daymate-export-%s.%s", snap.Date.Format("20060102-150405"), f)
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
