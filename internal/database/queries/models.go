package queries

import "time"

// Pin is one row of the pins table
type Pin struct {
	Path      string
	Position  int64
	CreatedAt time.Time
}
