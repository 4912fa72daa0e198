package models

// ResultCode classifies a failed moderation action
type ResultCode string

const (
	CodeNotFound          ResultCode = "not_found"
	CodeValidationError   ResultCode = "validation_error"
	CodeInvalidTransition ResultCode = "invalid_transition"
	CodeUpdateFailed      ResultCode = "update_failed"
)

// ResultPath records which tier carried out a moderation action
type ResultPath string

const (
	PathRPC      ResultPath = "rpc"
	PathFallback ResultPath = "fallback"
)

// ActionResult is the uniform outcome of every moderation action
type ActionResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Code    ResultCode `json:"code,omitempty"`
	Error   string     `json:"error,omitempty"`
	Path    ResultPath `json:"path,omitempty"`
}

// Succeeded builds a successful result
func Succeeded(message string, path ResultPath) ActionResult {
	return ActionResult{Success: true, Message: message, Path: path}
}

// Failed builds a failed result; err may be nil
func Failed(code ResultCode, message string, err error) ActionResult {
	r := ActionResult{Success: false, Message: message, Code: code}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
