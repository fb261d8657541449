package tabular

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSource reads a CSV or XLSX file, picked by extension.
type FileSource struct {
	path  string
	sheet string
}

// NewFileSource creates a source for path. sheet only applies to workbooks.
func NewFileSource(path, sheet string) *FileSource {
	return &FileSource{path: path, sheet: sheet}
}

// Path returns the file location.
func (fs *FileSource) Path() string {
	return fs.path
}

func (fs *FileSource) Describe() string {
	return fs.path
}

func (fs *FileSource) Stat(ctx context.Context) (Stamp, error) {
	if err := ctx.Err(); err != nil {
		return Stamp{}, err
	}
	info, err := os.Stat(fs.path)
	if err != nil {
		return Stamp{}, err
	}
	return Stamp{ModTime: info.ModTime(), Size: info.Size()}, nil
}

func (fs *FileSource) Read(ctx context.Context) (*Table, Signature, error) {
	stamp, err := fs.Stat(ctx)
	if err != nil {
		return nil, Signature{}, err
	}
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, Signature{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Signature{}, err
	}

	var table *Table
	switch ext := strings.ToLower(filepath.Ext(fs.path)); ext {
	case ".xlsx", ".xlsm":
		table, err = ParseXLSX(bytes.NewReader(data), fs.sheet)
	case ".csv", ".tsv", ".txt", "":
		table, err = ParseCSV(data)
	default:
		return nil, Signature{}, fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return nil, Signature{}, fmt.Errorf("%s: %w", fs.path, err)
	}

	stamp.Size = int64(len(data))
	return table, Signature{Stamp: stamp, Checksum: Checksum(data)}, nil
}

// MemorySource serves a table held in memory. Every Set bumps the stamp
// version, which makes it usable wherever a file would be watched.
type MemorySource struct {
	mu      sync.RWMutex
	name    string
	table   *Table
	version uint64
	err     error
}

// NewMemorySource creates a source holding header and rows.
func NewMemorySource(name string, header []string, rows [][]string) *MemorySource {
	ms := &MemorySource{name: name}
	ms.Set(header, rows)
	return ms
}

// Set replaces the table and clears any injected failure.
func (ms *MemorySource) Set(header []string, rows [][]string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.table = &Table{Header: header, Rows: rows}
	ms.err = nil
	ms.version++
}

// Fail makes subsequent reads return err.
func (ms *MemorySource) Fail(err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.err = err
	ms.version++
}

func (ms *MemorySource) Describe() string {
	return "memory:" + ms.name
}

func (ms *MemorySource) Stat(ctx context.Context) (Stamp, error) {
	if err := ctx.Err(); err != nil {
		return Stamp{}, err
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return Stamp{Version: ms.version}, nil
}

func (ms *MemorySource) Read(ctx context.Context) (*Table, Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, Signature{}, err
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if ms.err != nil {
		return nil, Signature{}, ms.err
	}

	var buf bytes.Buffer
	for _, row := range append([][]string{ms.table.Header}, ms.table.Rows...) {
		buf.WriteString(strings.Join(row, "\x1f"))
		buf.WriteByte('\n')
	}

	rows := make([][]string, len(ms.table.Rows))
	copy(rows, ms.table.Rows)
	table := &Table{Header: append([]string(nil), ms.table.Header...), Rows: rows}
	return table, Signature{Stamp: Stamp{Version: ms.version}, Checksum: Checksum(buf.Bytes())}, nil
}
