package relay

import "errors"

var (
	// ErrUnexpectedStatus indicates the tool service answered with a
	// non-200 HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected relay status")

	// ErrRPC indicates the tool service returned a JSON-RPC error object.
	ErrRPC = errors.New("relay rpc error")

	// ErrToolFailed indicates the tool ran but reported failure
	// (isError set on the result).
	ErrToolFailed = errors.New("tool call failed")

	// ErrEmptyResult indicates the tool returned no content parts.
	ErrEmptyResult = errors.New("empty tool result")
)
