// Package arrio exposes record stream interfaces not unlike the ones defined
// in the stdlib io package.
package arrio

import (
	"errors"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
)

// Reader is the interface that wraps the Read method.
type Reader interface {
	// Read returns the next record of the stream, or (nil, io.EOF) at its end.
	// The caller owns the returned record and must release it.
	Read() (arrow.Record, error)
}

// Writer is the interface that wraps the Write method.
type Writer interface {
	Write(rec arrow.Record) error
}

// WriteCloser is a Writer that must be closed to flush its artifact.
type WriteCloser interface {
	Writer
	Close() error
}

// Drain reads every record of src and hands it to fn, releasing it after fn
// returns. It returns the number of records read. Reaching io.EOF is not an
// error.
func Drain(src Reader, fn func(arrow.Record) error) (n int64, err error) {
	for {
		rec, err := src.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		err = fn(rec)
		rec.Release()
		if err != nil {
			return n, err
		}
		n++
	}
}
