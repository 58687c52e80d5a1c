package coachdto

// DomainError is the wire-facing error shape. Field names the offending
// request field for validation failures.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "coach service error"
}
