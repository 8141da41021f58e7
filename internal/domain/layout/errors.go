package layout

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrInvalidZones  = errors.New("invalid zone set")
	ErrEmptySpec     = errors.New("chart spec has no plottable series")
	ErrUnknownType   = errors.New("unknown chart type")
	ErrTitleOverflow = errors.New("title does not fit at minimum font size")
	ErrZoneViolation = errors.New("element placed outside its zone")
)
