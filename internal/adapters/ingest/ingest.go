// Package ingest reads uploaded sales exports (CSV or XLSX) into datasets.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/insights/internal/domain/model"
)

// Format is an input file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Media types recognised for uploads.
const (
	MediaTypeCSV  = "text/csv"
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var zipMagic = []byte("PK\x03\x04") //nolint:gochecknoglobals // read-only

// DetectFormat picks a format from the file content first, then the file
// name and the declared media type. Anything that is not a workbook is read
// as delimited text.
func DetectFormat(name, contentType string, head []byte) Format {
	if bytes.HasPrefix(head, zipMagic) {
		return FormatXLSX
	}
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return FormatXLSX
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == MediaTypeXLSX {
		return FormatXLSX
	}
	return FormatCSV
}

// Read parses r in the given format.
func Read(r io.Reader, format Format) (*model.Dataset, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Upload is an uploaded file held in memory.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Format returns the detected format of u.
func (u Upload) Format() Format {
	return DetectFormat(u.Name, u.ContentType, u.Data)
}

// Load parses the upload. It satisfies pipeline.Loader.
func (u Upload) Load(_ context.Context) (*model.Dataset, error) {
	if len(bytes.TrimSpace(u.Data)) == 0 {
		return nil, ErrEmptyFile
	}
	return Read(bytes.NewReader(u.Data), u.Format())
}

// File loads a dataset from a local path.
type File string

// Load reads and parses the file. It satisfies pipeline.Loader.
func (f File) Load(ctx context.Context) (*model.Dataset, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", string(f), err)
	}
	return Upload{Name: filepath.Base(string(f)), Data: data}.Load(ctx)
}
