package story

import "errors"

// Error kinds. Match them with errors.Is.
var (
	ErrFetchFailed      = errors.New("narration fetch failed")
	ErrBuildStepFailed  = errors.New("story build step failed")
	ErrAutoplayRejected = errors.New("autoplay rejected")
)

// Error carries a user-facing message together with its kind and cause.
type Error struct {
	Kind      error
	ChapterID string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Reason returns the message to show to the user for err.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
