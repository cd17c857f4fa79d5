package integrations

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	pool "github.com/arrowarc/weatherarc/internal/memory"
)

// IPCWriter writes records to an Arrow IPC file.
type IPCWriter struct {
	file   *os.File
	writer *ipc.FileWriter
	alloc  memory.Allocator
}

// NewIPCWriter creates filePath as an Arrow IPC file for records of schema.
func NewIPCWriter(filePath string, schema *arrow.Schema) (*IPCWriter, error) {
	alloc := pool.GetAllocator()

	f, err := os.Create(filePath)
	if err != nil {
		pool.PutAllocator(alloc)
		return nil, fmt.Errorf("could not create file: %w", err)
	}

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(alloc))
	if err != nil {
		f.Close()
		os.Remove(filePath)
		pool.PutAllocator(alloc)
		return nil, fmt.Errorf("could not create IPC writer: %w", err)
	}
	return &IPCWriter{file: f, writer: w, alloc: alloc}, nil
}

func (w *IPCWriter) Write(record arrow.Record) error {
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("could not write record: %w", err)
	}
	return nil
}

// Close writes the IPC footer and closes the file.
func (w *IPCWriter) Close() error {
	defer pool.PutAllocator(w.alloc)
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("could not close writer: %w", err)
	}
	return w.file.Close()
}

// IPCReader reads the record batches of an Arrow IPC file in order.
type IPCReader struct {
	file   *os.File
	reader *ipc.FileReader
	next   int
}

// NewIPCReader opens filePath as an Arrow IPC file.
func NewIPCReader(filePath string) (*IPCReader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	r, err := ipc.NewFileReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create IPC reader: %w", err)
	}
	return &IPCReader{file: f, reader: r}, nil
}

func (r *IPCReader) Read() (arrow.Record, error) {
	if r.next >= r.reader.NumRecords() {
		return nil, io.EOF
	}
	rec, err := r.reader.Record(r.next)
	if err != nil {
		return nil, fmt.Errorf("error reading IPC file: %w", err)
	}
	r.next++
	rec.Retain()
	return rec, nil
}

// Schema returns the schema of the file.
func (r *IPCReader) Schema() *arrow.Schema {
	return r.reader.Schema()
}

func (r *IPCReader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
