package response

type StandardApiResponse struct {
	Status     string      `json:"status"`           // "success" or "error"
	StatusCode int         `json:"status_code"`      // HTTP status code
	Message    string      `json:"message"`          // Human-readable message
	Data       interface{} `json:"data,omitempty"`   // Payload for success
	Errors     interface{} `json:"errors,omitempty"` // Validation or error details
}

// ProgramErrorDetail reports the numeric code a program or the host
// attached to a failed transaction.
type ProgramErrorDetail struct {
	Code        uint32 `json:"code"`
	Name        string `json:"name,omitempty"`
	Message     string `json:"message"`
	Instruction *int   `json:"instruction,omitempty"`
}

// FieldError is one failed validation rule on a request field
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}
