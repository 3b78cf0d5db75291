package repository

import (
	"errors"
	"time"
)

var ErrObjectNotFound = errors.New("not found")

// KVEntry is one row of the key-value table shared by the SQL backends.
type KVEntry struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}
