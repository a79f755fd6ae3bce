package types

// Envelope wraps every successful JSON body under "data".
type Envelope[T any] struct {
	Data T `json:"data"`
}

// Problem is the client-visible part of a failed request. Details only
// carries field errors or stock shortages, never internal causes.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ProblemEnvelope wraps every failed JSON body under "error".
type ProblemEnvelope struct {
	Error Problem `json:"error"`
}
