package storage

import "errors"

// ErrTransactionNotFound is returned when no record exists for a session id.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrTransactionExists is returned when a record already exists for a session id.
var ErrTransactionExists = errors.New("transaction already exists")
