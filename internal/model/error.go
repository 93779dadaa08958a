package model

// ValidationError is the error every usecase returns for a caller mistake. Code decides the HTTP
// status, Param names the offending field or path parameter.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
}

func NewValidationError(code string, message string, param string) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Param:   param,
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}
