package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool is returned when the model asks for a tool that is not registered
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when tool arguments do not match the tool's schema
	ErrInvalidArguments = errors.New("invalid tool arguments")
	// ErrIncompleteToolCall is returned when streamed tool-call fragments cannot be assembled
	ErrIncompleteToolCall = errors.New("incomplete tool call")
	// ErrChatNotFound is returned by repositories for missing chats
	ErrChatNotFound = errors.New("chat not found")
	// ErrMissingAPIKey is returned at startup when a backend needs a key that is not configured
	ErrMissingAPIKey = errors.New("api key is not configured")
	// ErrMissingModel is returned at startup when no model identifier is configured
	ErrMissingModel = errors.New("model is not configured")
)

// UnknownToolError names the tool the model asked for
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

func (e *UnknownToolError) Unwrap() error {
	return ErrUnknownTool
}

// FetchErrorKind classifies page fetch failures
type FetchErrorKind string

const (
	FetchTransport       FetchErrorKind = "transport"
	FetchHTTPStatus      FetchErrorKind = "http_status"
	FetchUnsupportedType FetchErrorKind = "unsupported_type"
	FetchParse           FetchErrorKind = "parse"
)

// FetchError is the labelled failure of a single source. Its message is what ends up
// in SourceResult.Error.
type FetchError struct {
	Kind       FetchErrorKind
	Detail     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	case FetchUnsupportedType:
		ctype := e.Detail
		if ctype == "" {
			ctype = "unknown"
		}
		return "Skipped non-HTML content-type: " + ctype
	case FetchParse:
		return "ParseError: " + e.Detail
	default:
		return "TransportError: " + e.Detail
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a network-level failure
func NewTransportError(err error) *FetchError {
	return &FetchError{Kind: FetchTransport, Detail: err.Error(), Err: err}
}

// NewParseError wraps an HTML parsing failure
func NewParseError(err error) *FetchError {
	return &FetchError{Kind: FetchParse, Detail: err.Error(), Err: err}
}
