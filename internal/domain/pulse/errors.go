package pulse

import "errors"

// ErrOutOfRange indicates a pulse index beyond the workflow's pulse count.
var ErrOutOfRange = errors.New("pulse index out of range")
