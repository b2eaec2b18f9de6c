package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// utf8BOM is written by spreadsheet exports in front of the first header.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sourceReader wraps a data file and, for .zst files, its decoder.
type sourceReader struct {
	io.Reader
	file *os.File
	zr   *zstd.Decoder
}

func (s *sourceReader) Close() error {
	if s.zr != nil {
		s.zr.Close()
	}
	return s.file.Close()
}

// openSource opens a data file. Files ending in .zst are decompressed
// transparently and a leading UTF-8 byte order mark is skipped.
func openSource(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src := &sourceReader{file: f}

	var r io.Reader = f
	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		src.zr = zr
		r = zr
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	src.Reader = br
	return src, nil
}

// csvTable is a header-driven view of a CSV file. Columns are located by
// name so that extra or reordered columns are tolerated.
type csvTable struct {
	path   string
	r      *csv.Reader
	header []string
	line   int
}

func newCSVTable(path string, r io.Reader) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return &csvTable{path: path, r: cr, header: header, line: 1}, nil
}

// column returns the index of the first header matching any of names.
func (t *csvTable) column(names ...string) (int, error) {
	for _, name := range names {
		for i, h := range t.header {
			if strings.EqualFold(h, name) {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("%s: missing column %q", t.path, names[0])
}

// next returns the next record and its 1-based line number, or io.EOF.
func (t *csvTable) next() ([]string, int, error) {
	rec, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		return nil, 0, fmt.Errorf("%s: %w", t.path, err)
	}
	t.line, _ = t.r.FieldPos(0)
	return rec, t.line, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
