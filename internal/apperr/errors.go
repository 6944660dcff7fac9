package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNoDashboard       = errors.New("no dashboard selected")
	ErrLoad              = errors.New("load failed")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// LoadError reports a dashboard source that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load dashboard: %v", e.Err)
	}
	return fmt.Sprintf("load dashboard %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoad) true for any LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }
