package errors

import "errors"

// ErrConflict marks a stale status write: the scan's version changed
// between read and update, or the requested transition moves backwards.
var ErrConflict = errors.New("record was modified by another operation, refresh and retry")
