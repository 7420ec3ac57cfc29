// Package queries holds the typed statements for the pins schema
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is satisfied by *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// New returns unprepared queries bound to db
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Prepare compiles every statement up front. The caller owns Close.
func Prepare(ctx context.Context, db DBTX) (*Queries, error) {
	q := Queries{db: db}
	var err error
	if q.countPinsStmt, err = db.PrepareContext(ctx, countPins); err != nil {
		return nil, fmt.Errorf("error preparing query CountPins: %w", err)
	}
	if q.deletePinStmt, err = db.PrepareContext(ctx, deletePin); err != nil {
		return nil, fmt.Errorf("error preparing query DeletePin: %w", err)
	}
	if q.insertPinStmt, err = db.PrepareContext(ctx, insertPin); err != nil {
		return nil, fmt.Errorf("error preparing query InsertPin: %w", err)
	}
	if q.isPinnedStmt, err = db.PrepareContext(ctx, isPinned); err != nil {
		return nil, fmt.Errorf("error preparing query IsPinned: %w", err)
	}
	if q.listPinsStmt, err = db.PrepareContext(ctx, listPins); err != nil {
		return nil, fmt.Errorf("error preparing query ListPins: %w", err)
	}
	return &q, nil
}

// Close releases the prepared statements
func (q *Queries) Close() error {
	var errs []error
	for _, stmt := range []*sql.Stmt{q.countPinsStmt, q.deletePinStmt, q.insertPinStmt, q.isPinnedStmt, q.listPinsStmt} {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (q *Queries) exec(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) (sql.Result, error) {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).ExecContext(ctx, args...)
	case stmt != nil:
		return stmt.ExecContext(ctx, args...)
	default:
		return q.db.ExecContext(ctx, query, args...)
	}
}

func (q *Queries) query(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) (*sql.Rows, error) {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).QueryContext(ctx, args...)
	case stmt != nil:
		return stmt.QueryContext(ctx, args...)
	default:
		return q.db.QueryContext(ctx, query, args...)
	}
}

func (q *Queries) queryRow(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) *sql.Row {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).QueryRowContext(ctx, args...)
	case stmt != nil:
		return stmt.QueryRowContext(ctx, args...)
	default:
		return q.db.QueryRowContext(ctx, query, args...)
	}
}

// Queries runs the pins statements against a connection or transaction
type Queries struct {
	db            DBTX
	tx            *sql.Tx
	countPinsStmt *sql.Stmt
	deletePinStmt *sql.Stmt
	insertPinStmt *sql.Stmt
	isPinnedStmt  *sql.Stmt
	listPinsStmt  *sql.Stmt
}

// WithTx returns a copy of q whose statements run inside tx
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db:            tx,
		tx:            tx,
		countPinsStmt: q.countPinsStmt,
		deletePinStmt: q.deletePinStmt,
		insertPinStmt: q.insertPinStmt,
		isPinnedStmt:  q.isPinnedStmt,
		listPinsStmt:  q.listPinsStmt,
	}
}
