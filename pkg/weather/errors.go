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

package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound reports a required source table that is absent or unreadable.
	ErrInputNotFound = errors.New("input not found")
	// ErrParse reports a timestamp or value that could not be parsed.
	ErrParse = errors.New("parse error")
	// ErrMisaligned reports source tables whose rows do not line up.
	ErrMisaligned = errors.New("tables misaligned")
	// ErrUnknownCity reports a requested city absent from the source columns.
	ErrUnknownCity = errors.New("unknown city")
	// ErrEmptyPartition reports a city with no records left after cleaning.
	ErrEmptyPartition = errors.New("empty partition")
	// ErrInvalidConfig reports unusable cleaning or merge options.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ParseError describes a cell that could not be parsed.
type ParseError struct {
	Table string
	Row   int
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("parse error in table %q: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("parse error in table %q at row %d (%q): %v", e.Table, e.Row, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// MisalignedError describes the first row at which a table disagrees with
// the temperature table.
type MisalignedError struct {
	Table string
	Row   int
	Want  string
	Got   string
}

func (e *MisalignedError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("table %q has %s rows, want %s", e.Table, e.Got, e.Want)
	}
	return fmt.Sprintf("table %q row %d has timestamp %q, want %q", e.Table, e.Row, e.Got, e.Want)
}

func (e *MisalignedError) Is(target error) bool { return target == ErrMisaligned }
