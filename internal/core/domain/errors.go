package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUpload       = errors.New("upload failed")
	ErrFetch        = errors.New("document fetch failed")
	ErrExtraction   = errors.New("text extraction failed")
	ErrModel        = errors.New("model completion failed")
	ErrFileNotFound = errors.New("file not found")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
