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

package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"

	integrations "github.com/arrowarc/weatherarc/integrations/filesystem"
	"github.com/arrowarc/weatherarc/integrations/sqlite"
	"github.com/arrowarc/weatherarc/internal/arrio"
	"github.com/arrowarc/weatherarc/pkg/common/config"
)

// NewSink opens the writer for the configured output format.
func NewSink(ctx context.Context, out config.Output, schema *arrow.Schema) (arrio.WriteCloser, error) {
	switch out.Format {
	case config.FormatCSV:
		return integrations.NewCSVRecordWriter(ctx, out.Path, schema, ',')
	case config.FormatParquet:
		return integrations.NewParquetWriter(out.Path, schema, nil)
	case config.FormatIPC:
		return integrations.NewIPCWriter(out.Path, schema)
	case config.FormatJSON:
		return integrations.NewJSONWriter(out.Path)
	case config.FormatSQLite:
		return sqlite.NewSQLiteWriter(ctx, out.Path, out.Table)
	}
	return nil, fmt.Errorf("unsupported output format %q", out.Format)
}

type aborter interface {
	Abort() error
}

// WriteArtifact writes rec to the configured output. When any step fails or
// ctx is cancelled, the partially written artifact is removed.
func WriteArtifact(ctx context.Context, out config.Output, rec arrow.Record) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Sinks clean up after a failed open themselves.
	w, err := NewSink(ctx, out, rec.Schema())
	if err != nil {
		return fmt.Errorf("failed to open %s sink: %w", out.Format, err)
	}

	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			if a, ok := w.(aborter); ok {
				a.Abort()
			} else {
				w.Close()
			}
		}
		removeArtifact(out.Path)
	}()

	if err = w.Write(rec); err != nil {
		return fmt.Errorf("failed to write %s: %w", out.Path, err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	closed = true
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out.Path, err)
	}
	return nil
}

func removeArtifact(path string) {
	_ = os.Remove(path)
}
