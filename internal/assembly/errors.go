package assembly

import "fmt"

// ValidationError reports a caller mistake: bad input shape, out-of-range
// counts, mismatched voices. Never worth retrying unchanged.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// NotFoundError reports that a book or voice does not exist for the calling
// owner. Ownership mismatches look identical to missing records.
type NotFoundError struct {
	Kind string // "book" or "voice"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// StorageError reports an artifact store or persistence failure. The whole
// operation aborted; retrying the operation is safe.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a failed text extraction. Page is 1-based so the
// caller knows which input image to check.
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: page %d: %v", e.Page, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// SynthesisError reports a failed speech synthesis call. Chunk is 1-based;
// zero means the failure was not tied to a specific chunk (e.g. cloning).
type SynthesisError struct {
	Chunk int
	Err   error
}

func (e *SynthesisError) Error() string {
	if e.Chunk <= 0 {
		return fmt.Sprintf("synthesis: %v", e.Err)
	}
	return fmt.Sprintf("synthesis: chunk %d: %v", e.Chunk, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// AssemblyError reports a failed audio concatenation or rendition upload.
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly: %v", e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}
