package response

import "github.com/nuvora/catalog-service/pkg/apperrors"

// Result is the tagged envelope every exposed operation is shaped into
// before it leaves the core.
type Result struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

func Success(message string, data interface{}) *Result {
	return &Result{
		Status:     "success",
		StatusCode: 200,
		Message:    message,
		Data:       data,
	}
}

// FromError maps an error onto the envelope. Internal causes never leak:
// only the classified message and status code are exposed.
func FromError(err error) *Result {
	appErr := apperrors.From(err)
	message := appErr.Message
	if appErr.Kind == apperrors.KindDependency {
		message = "internal error"
	}
	return &Result{
		Status:     "error",
		StatusCode: appErr.StatusCode,
		Message:    message,
	}
}
