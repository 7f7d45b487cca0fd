package book

import "errors"

// ErrUploadsDisabled is returned when no object storage is configured
var ErrUploadsDisabled = errors.New("cover uploads are not configured")
