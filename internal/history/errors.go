package history

import (
	"git.home.luguber.info/inful/docshell/internal/foundation/errors"
)

// ErrNotFound is returned for a build ID without events.
var ErrNotFound = errors.NewError(errors.CategoryNotFound, "build not found in history").Build()
