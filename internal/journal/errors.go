package journal

import "errors"

var (
	// ErrNotFound is returned by Update, Remove and Get when no thought has the id.
	ErrNotFound = errors.New("thought not found")
	// ErrBlankThought is returned by Add when the text is empty after trimming.
	ErrBlankThought = errors.New("thought text is blank")
)
