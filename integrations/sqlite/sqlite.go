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

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/arrowarc/weatherarc/arrowutils"
	"github.com/arrowarc/weatherarc/pkg/weather"

	_ "modernc.org/sqlite"
)

// DefaultTable is the table observations are written to.
const DefaultTable = "observations"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidTableName reports whether name can be used unquoted as a table name.
func ValidTableName(name string) bool {
	return identifier.MatchString(name)
}

// SQLiteWriter writes observation records into a fresh SQLite database. All
// rows go through one transaction that is committed on Close.
type SQLiteWriter struct {
	ctx  context.Context
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	rows int64
}

// NewSQLiteWriter creates the database file at filePath, replacing any
// existing one, and creates table.
func NewSQLiteWriter(ctx context.Context, filePath, table string) (*SQLiteWriter, error) {
	if table == "" {
		table = DefaultTable
	}
	if !ValidTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createTableSQL(table)); err != nil {
		db.Close()
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(table))
	if err != nil {
		tx.Rollback()
		db.Close()
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	return &SQLiteWriter{ctx: ctx, db: db, tx: tx, stmt: stmt}, nil
}

func createTableSQL(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (%s TEXT NOT NULL, %s TEXT NOT NULL", table, arrowutils.TimestampColumn, arrowutils.CityColumn)
	for _, f := range weather.Fields {
		fmt.Fprintf(&b, ", %s REAL", f)
	}
	b.WriteString(")")
	return b.String()
}

func insertSQL(table string) string {
	cols := []string{arrowutils.TimestampColumn, arrowutils.CityColumn}
	for _, f := range weather.Fields {
		cols = append(cols, f.String())
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)
}

// Write inserts every row of record. The record must carry the observation schema.
func (w *SQLiteWriter) Write(record arrow.Record) error {
	ds, err := arrowutils.RecordToDataset(record)
	if err != nil {
		return fmt.Errorf("failed to write record to SQLite: %w", err)
	}
	args := make([]any, 2+weather.NumFields)
	for _, o := range ds {
		args[0] = o.Timestamp.UTC().Format(weather.OutputTimestampLayout)
		args[1] = o.City
		for i, f := range weather.Fields {
			if o.Has(f) {
				args[2+i] = o.Get(f)
			} else {
				args[2+i] = nil
			}
		}
		if _, err := w.stmt.ExecContext(w.ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", w.rows, err)
		}
		w.rows++
	}
	return nil
}

// Rows returns the number of rows inserted so far.
func (w *SQLiteWriter) Rows() int64 {
	return w.rows
}

// Close commits the transaction and closes the database.
func (w *SQLiteWriter) Close() error {
	w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit: %w", err)
	}
	return w.db.Close()
}

// Abort rolls the transaction back and closes the database.
func (w *SQLiteWriter) Abort() error {
	w.stmt.Close()
	w.tx.Rollback()
	return w.db.Close()
}
