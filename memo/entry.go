package memo

import "time"

// Entry is what the engine stores in a backend for each cached call.
//
// ExpirationTime records the freshness deadline in force when the entry was
// written. Readers never trust it: the deadline is re-derived from SetTime
// and the reader's own duration, and the stored value is rewritten when the
// two disagree. The zero time marks an entry as invalidated.
type Entry[T any] struct {
	Value          T         `msgpack:"v"`
	SetTime        time.Time `msgpack:"s"`
	ExpirationTime time.Time `msgpack:"e"`
}

// Invalidated reports whether the entry was soft-expired by Invalidate.
func (e Entry[T]) Invalidated() bool {
	return e.ExpirationTime.IsZero()
}
