package topic

import "errors"

var errEmptyFilter = errors.New("topic: empty filter")
