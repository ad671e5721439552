package parser

import "errors"

var errTrailingData = errors.New("trailing data after JSON value")
