package scan

import "errors"

// ErrScanNotFound indicates the scan doesn't exist.
var ErrScanNotFound = errors.New("scan not found")
