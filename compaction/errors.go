package compaction

import "errors"

var (
	// ErrNothingToCompact reports a pass skipped because its plan was empty.
	ErrNothingToCompact = errors.New("nothing to compact")

	// ErrSummarizationFailure reports a failed Summarizer call. The session
	// is left unchanged.
	ErrSummarizationFailure = errors.New("summarization failed")
)
