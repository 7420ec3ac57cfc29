package queries

import "context"

const countPins = `-- name: CountPins :one
SELECT COUNT(*) FROM pins
`

func (q *Queries) CountPins(ctx context.Context) (int64, error) {
	row := q.queryRow(ctx, q.countPinsStmt, countPins)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deletePin = `-- name: DeletePin :execrows
DELETE FROM pins WHERE path = ?
`

func (q *Queries) DeletePin(ctx context.Context, path string) (int64, error) {
	result, err := q.exec(ctx, q.deletePinStmt, deletePin, path)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertPin = `-- name: InsertPin :exec
INSERT INTO pins (path, position)
VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM pins))
`

func (q *Queries) InsertPin(ctx context.Context, path string) error {
	_, err := q.exec(ctx, q.insertPinStmt, insertPin, path)
	return err
}

const isPinned = `-- name: IsPinned :one
SELECT EXISTS(SELECT 1 FROM pins WHERE path = ?)
`

func (q *Queries) IsPinned(ctx context.Context, path string) (bool, error) {
	row := q.queryRow(ctx, q.isPinnedStmt, isPinned, path)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listPins = `-- name: ListPins :many
SELECT path, position, created_at FROM pins
ORDER BY position ASC
`

func (q *Queries) ListPins(ctx context.Context) ([]Pin, error) {
	rows, err := q.query(ctx, q.listPinsStmt, listPins)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Pin
	for rows.Next() {
		var i Pin
		if err := rows.Scan(&i.Path, &i.Position, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
