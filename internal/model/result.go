package model

// Result is the tagged outcome of a summarization, as returned to callers
// that cannot consume Go errors (HTTP clients, JSON output).
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    Table  `json:"data,omitempty"`
}

// Succeeded wraps a result table.
func Succeeded(message string, data Table) Result {
	return Result{Success: true, Message: message, Data: data}
}

// Failed wraps a diagnostic message.
func Failed(message string) Result {
	return Result{Message: message}
}
