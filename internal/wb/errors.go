package wb

import "errors"

// Sentinel errors for the fatal conditions a malformed or unsupported
// source model can produce. All of them abort the conversion; callers
// match with errors.Is and the wrapped message carries the offending
// identifier or attribute.
var (
	ErrInvalidFileFormat        = errors.New("invalid mwb file format")
	ErrInnerDocumentNotFound    = errors.New("inner document not found")
	ErrKeyNotFound              = errors.New("attribute key not found")
	ErrDuplicateKey             = errors.New("duplicate attribute key")
	ErrUnsupportedAttributeType = errors.New("unsupported attribute type")
	ErrUnrecognizedNativeType   = errors.New("unrecognized native type")
	ErrDuplicateTypeID          = errors.New("duplicate type id")
	ErrColumnNotFound           = errors.New("column not found")
)
