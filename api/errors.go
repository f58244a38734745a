package api

// ErrorResponse is the body of every non-2xx JSON answer
type ErrorResponse struct {
	// Error is a short machine readable code.
	// Example: "code_already_used"
	Error string `json:"error"`

	// Description is human readable and safe to show to the user.
	// Example: "Malformed auth code."
	Description string `json:"error_description,omitempty"`
}

// MessageResponse is returned by endpoints that have nothing else to report
type MessageResponse struct {
	Message string `json:"message"`
}
