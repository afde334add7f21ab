package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/solar-quotes/internal/entity"
)

// MaxDocumentBytes caps how much of a single upload is read into memory.
const MaxDocumentBytes = 64 << 20

// LoadDocument reads one quote file from disk.
func LoadDocument(path string) (entity.Document, error) {
	if !AllowedExt(filepath.Ext(path)) {
		return entity.Document{}, fmt.Errorf("unsupported file type: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return entity.Document{}, err
	}
	if info.IsDir() {
		return entity.Document{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxDocumentBytes {
		return entity.Document{}, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), MaxDocumentBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Document{}, err
	}
	return entity.Document{
		Filename:   filepath.Base(path),
		SourcePath: path,
		Data:       data,
	}, nil
}
