package domain

// DomainError carries a stable machine code next to a human message.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Is matches on code so wrapped copies with a different message still match
// their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidInput = "INVALID_INPUT"
	CodeInvalidState = "INVALID_STATE"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeUnavailable  = "UNAVAILABLE"
)

var (
	ErrNotFound     = NewDomainError(CodeNotFound, "resource not found")
	ErrInvalidInput = NewDomainError(CodeInvalidInput, "invalid input provided")
	ErrInvalidState = NewDomainError(CodeInvalidState, "operation not allowed in current state")
	ErrUnauthorized = NewDomainError(CodeUnauthorized, "authentication required")
	ErrUnavailable  = NewDomainError(CodeUnavailable, "service temporarily unavailable")
)
