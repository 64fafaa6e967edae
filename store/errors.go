package store

import "errors"

// ErrMissingRevision is returned by Write when the document carries no revision.
// Such a write could never succeed against the revision check.
var ErrMissingRevision = errors.New("docupsert: write without revision")
