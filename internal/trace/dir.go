package trace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/rpggio/tracereplay/internal/domain/event"
)

// DirSource reads artifacts from a filesystem laid out as
// manifest.json, <trace>.json and security_report.md.
type DirSource struct {
	fsys fs.FS
}

// NewDirSource creates a source over fsys.
func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

// OpenDir creates a source over a directory on disk.
func OpenDir(dir string) *DirSource {
	return NewDirSource(os.DirFS(dir))
}

func (s *DirSource) Manifest(_ context.Context) ([]string, error) {
	data, err := s.read(ManifestFile)
	if err != nil {
		return nil, err
	}
	return DecodeManifest(data), nil
}

func (s *DirSource) Trace(_ context.Context, name string) ([]event.Event, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := s.read(name)
	if err != nil {
		return nil, err
	}
	return DecodeTrace(data)
}

func (s *DirSource) Report(_ context.Context) (string, error) {
	data, err := s.read(ReportFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *DirSource) read(name string) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// ValidateName rejects trace names that are not plain .json file names.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name != path.Base(name) || !strings.HasSuffix(name, ".json") || name == ManifestFile {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
