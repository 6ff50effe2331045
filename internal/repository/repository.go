package repository

import "errors"

// ErrRowConflict is returned by conditional (compare-and-swap) updates when
// the targeted row no longer carries the expected row_version, meaning a
// concurrent writer interleaved between the read and the write.
var ErrRowConflict = errors.New("repository: row version conflict")
