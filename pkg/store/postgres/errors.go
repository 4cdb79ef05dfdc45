package postgres

import "errors"

// errNotFound is wrapped into a repository's returned error when a
// lookup by id matches no row.
var errNotFound = errors.New("not found")
