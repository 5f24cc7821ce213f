package domain

import "errors"

// ErrNotFound is returned by repositories for ids outside the caller's tenant
// as well as for ids that do not exist.
var ErrNotFound = errors.New("domain: not found")
