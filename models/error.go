package models

// ErrorMessageResponse is the body of every error reply
type ErrorMessageResponse struct {
	Response MessageError `json:"Response"`
}

// MessageError carries a human readable message and, outside production 5xx replies, the
// underlying error text
type MessageError struct {
	Message string `json:"Message"`
	Error   string `json:"Error"`
}
