package gemini

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Operation names a remote operation for errors, logs and metrics.
type Operation string

const (
	OpEnhance  Operation = "enhance"
	OpExtract  Operation = "extract"
	OpTransfer Operation = "transfer"
	OpSuggest  Operation = "suggest"
)

// ErrNoColors is returned when a transfer is requested with an empty palette.
var ErrNoColors = errors.New("no colors selected for transfer")

// FailureCause says why a generation produced no usable image.
type FailureCause int

const (
	// CauseBlocked means the prompt was blocked by content policy.
	CauseBlocked FailureCause = iota
	// CauseAbnormalFinish means the candidate finished for a reason other than STOP.
	CauseAbnormalFinish
	// CauseTextOnly means the model replied with text and no image.
	CauseTextOnly
	// CauseEmpty means there was nothing usable in the response.
	CauseEmpty
)

func (c FailureCause) String() string {
	switch c {
	case CauseBlocked:
		return "blocked"
	case CauseAbnormalFinish:
		return "abnormal_finish"
	case CauseTextOnly:
		return "text_only"
	default:
		return "empty"
	}
}

// GenerationFailure is returned when the call succeeded but the response
// held no usable output. Detail carries the block reason, the finish reason
// or the model's text, depending on Cause.
type GenerationFailure struct {
	Cause  FailureCause
	Detail string
}

func (e *GenerationFailure) Error() string {
	switch e.Cause {
	case CauseBlocked:
		return "model returned no image: blocked, reason " + e.Detail
	case CauseAbnormalFinish:
		return "model returned no image: finish reason " + e.Detail
	case CauseTextOnly:
		return fmt.Sprintf("model returned no image: model replied %q", e.Detail)
	default:
		return "model returned no image: empty or filtered response"
	}
}

// ParseFailure is returned when a JSON response lacks the expected shape.
type ParseFailure struct {
	Reason string
	Err    error
}

func (e *ParseFailure) Error() string {
	if e.Err != nil {
		return "malformed model response: " + e.Reason + ": " + e.Err.Error()
	}
	return "malformed model response: " + e.Reason
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// TransportError wraps an SDK or network failure. StatusCode is set when the
// API answered with an error status.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gemini API error (status %d): %v", e.StatusCode, e.Err)
	}
	return "gemini call failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(err error) *TransportError {
	te := &TransportError{Err: err}
	var apiErr *genai.APIError
	var apiErrVal genai.APIError
	switch {
	case errors.As(err, &apiErr):
		te.StatusCode = apiErr.Code
	case errors.As(err, &apiErrVal):
		te.StatusCode = apiErrVal.Code
	}
	return te
}

// RemoteOperationError is the single error type returned by Client
// operations. Its message embeds the cause's message.
type RemoteOperationError struct {
	Op    Operation
	Cause error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Cause
}

// resultLabel classifies err for the Result metric dimension.
func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	var genErr *GenerationFailure
	var parseErr *ParseFailure
	switch {
	case errors.As(err, &genErr):
		return genErr.Cause.String()
	case errors.As(err, &parseErr):
		return "parse_error"
	default:
		return "transport_error"
	}
}
