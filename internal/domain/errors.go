package domain

import "errors"

var (
	// ErrSourceFailure is returned when the wallet token source is unreachable or reports failure
	ErrSourceFailure = errors.New("token source failure")

	// ErrInvalidToken is returned when a token fails ingestion validation
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidDocument is returned when a fetched metadata document does not match its schema
	ErrInvalidDocument = errors.New("invalid document")

	// ErrNotReady is returned when no snapshot has been derived yet
	ErrNotReady = errors.New("snapshot not ready")

	// ErrBatchNotFound is returned when a timeline batch does not exist
	ErrBatchNotFound = errors.New("batch not found")

	// ErrStationNotFound is returned when a station name is unknown
	ErrStationNotFound = errors.New("station not found")

	// ErrUnitNotCompleted is returned when selecting a unit beyond a station's completed count
	ErrUnitNotCompleted = errors.New("unit not completed")

	// ErrOperatorNotFound is returned when no operator matches a badge scan
	ErrOperatorNotFound = errors.New("operator not found")

	// ErrInvalidInput is returned when a request argument fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionNotFound is returned when an operator session does not exist or has expired
	ErrSessionNotFound = errors.New("session not found")
)

// SourceError carries the message reported for a failed token fetch.
// It matches ErrSourceFailure with errors.Is.
type SourceError struct {
	Message string
	Err     error
}

// NewSourceError creates a SourceError, defaulting the message to DEFAULT_SOURCE_ERROR_MESSAGE
func NewSourceError(message string, cause error) *SourceError {
	if message == "" {
		message = DEFAULT_SOURCE_ERROR_MESSAGE
	}
	return &SourceError{Message: message, Err: cause}
}

func (e *SourceError) Error() string {
	return e.Message
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceFailure
}
