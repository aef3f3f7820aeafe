package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoActiveSession = errors.New("no active session selected")
	ErrAccountExists   = errors.New("account already exists")
	ErrBadCredentials  = errors.New("invalid username or password")
)

// QuizErrorKind discriminates the ways quiz generation can fail.
type QuizErrorKind string

const (
	// QuizErrInsufficientHistory: the session has fewer than the required
	// turns; the text service is never called.
	QuizErrInsufficientHistory QuizErrorKind = "insufficient_history"
	// QuizErrServiceUnavailable: the generation call itself failed.
	QuizErrServiceUnavailable QuizErrorKind = "service_unavailable"
	// QuizErrMalformedResponse: the service returned text that is not JSON
	// even after fence stripping.
	QuizErrMalformedResponse QuizErrorKind = "malformed_response"
	// QuizErrInvalidShape: JSON parsed but failed structural validation.
	QuizErrInvalidShape QuizErrorKind = "invalid_quiz_shape"
)

// QuizError is the discriminated failure result of the quiz pipeline.
// Raw keeps the service's original text for diagnostic display when the
// response could not be parsed or validated.
type QuizError struct {
	Kind   QuizErrorKind
	Reason string
	Raw    string
	Err    error
}

func (e *QuizError) Error() string {
	if e.Reason != "" {
		return string(e.Kind) + ": " + e.Reason
	}
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *QuizError) Unwrap() error {
	return e.Err
}

// AsQuizError unwraps err into a *QuizError if it is one.
func AsQuizError(err error) (*QuizError, bool) {
	var qe *QuizError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
