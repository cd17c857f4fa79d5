// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package integrations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	pool "github.com/arrowarc/weatherarc/internal/memory"
)

// NewDefaultParquetWriterProperties returns Snappy-compressed V2 writer properties.
func NewDefaultParquetWriterProperties() *parquet.WriterProperties {
	return parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithDataPageSize(1024*1024),
		parquet.WithMaxRowGroupLength(1024*1024),
		parquet.WithCreatedBy("weatherarc"),
	)
}

// ParquetWriter writes records to a Parquet file.
type ParquetWriter struct {
	writer *pqarrow.FileWriter
	file   *os.File
	alloc  memory.Allocator
}

// NewParquetWriter creates filePath and prepares it for records of schema.
// A nil props uses NewDefaultParquetWriterProperties.
func NewParquetWriter(filePath string, schema *arrow.Schema, props *parquet.WriterProperties) (*ParquetWriter, error) {
	if props == nil {
		props = NewDefaultParquetWriterProperties()
	}
	alloc := pool.GetAllocator()

	f, err := os.Create(filePath)
	if err != nil {
		pool.PutAllocator(alloc)
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	writer, err := pqarrow.NewFileWriter(schema, f, props,
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema(), pqarrow.WithAllocator(alloc)))
	if err != nil {
		f.Close()
		os.Remove(filePath)
		pool.PutAllocator(alloc)
		return nil, fmt.Errorf("failed to create Parquet writer: %w", err)
	}

	return &ParquetWriter{writer: writer, file: f, alloc: alloc}, nil
}

func (p *ParquetWriter) Write(record arrow.Record) error {
	if err := p.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close writes the footer and closes the file.
func (p *ParquetWriter) Close() error {
	defer pool.PutAllocator(p.alloc)
	if err := p.writer.Close(); err != nil {
		p.file.Close()
		return fmt.Errorf("failed to close Parquet writer: %w", err)
	}
	if err := p.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// ParquetReader reads a Parquet file record by record and implements arrio.Reader.
type ParquetReader struct {
	recordReader pqarrow.RecordReader
	fileReader   *file.Reader
	alloc        memory.Allocator
}

// NewParquetReader opens filePath and reads every column and row group.
func NewParquetReader(ctx context.Context, filePath string, batchSize int64) (*ParquetReader, error) {
	alloc := pool.GetAllocator()

	rdr, err := file.OpenParquetFile(filePath, false)
	if err != nil {
		pool.PutAllocator(alloc)
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}

	fileReader, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: batchSize}, alloc)
	if err != nil {
		rdr.Close()
		pool.PutAllocator(alloc)
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}

	recordReader, err := fileReader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		rdr.Close()
		pool.PutAllocator(alloc)
		return nil, fmt.Errorf("failed to create record reader: %w", err)
	}

	return &ParquetReader{recordReader: recordReader, fileReader: rdr, alloc: alloc}, nil
}

func (p *ParquetReader) Read() (arrow.Record, error) {
	if p.recordReader.Next() {
		record := p.recordReader.Record()
		record.Retain()
		return record, nil
	}
	if err := p.recordReader.Err(); err != nil && err != io.EOF {
		return nil, err
	}
	return nil, io.EOF
}

// Schema returns the Arrow schema stored in the file.
func (p *ParquetReader) Schema() *arrow.Schema {
	return p.recordReader.Schema()
}

func (p *ParquetReader) Close() error {
	defer pool.PutAllocator(p.alloc)
	p.recordReader.Release()
	return p.fileReader.Close()
}
