package apperr

import (
	"errors"
	"os"
	"testing"
)

func TestLoadError_IsAndUnwrap(t *testing.T) {
	err := error(&LoadError{Path: "a.lookml", Err: os.ErrNotExist})
	if !errors.Is(err, ErrLoad) {
		t.Error("LoadError should match ErrLoad")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("LoadError should unwrap to cause")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("LoadError should not match ErrNotFound")
	}
	if got := err.Error(); got != "load dashboard a.lookml: file does not exist" {
		t.Errorf("Error() = %q", got)
	}
}
