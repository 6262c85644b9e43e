package services

import "errors"

// ErrNoActiveResume is returned when job discovery runs for a user who
// has no active resume to match against.
var ErrNoActiveResume = errors.New("no active resume")

// ErrInvalidStatus is returned for an application status outside the
// six enumerated values.
var ErrInvalidStatus = errors.New("invalid application status")

// ErrQuestionNotFound is returned when a question id does not exist in
// the prep's question bank.
var ErrQuestionNotFound = errors.New("question not found")

// ErrUnsupportedFile is returned for resume uploads with a content type
// that has no text-extraction path.
var ErrUnsupportedFile = errors.New("unsupported file type")
