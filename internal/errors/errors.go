// Package errors provides structured error types for the LLDB copilot.
// These errors carry machine-readable codes plus hints that help the user
// (and the agent, when an error is surfaced into a transcript) correct
// course when something goes wrong.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Dispatch errors: the debugger command port itself is unusable.
	CodePortUnavailable ErrorCode = "PORT_UNAVAILABLE"
	CodeDispatchFailed  ErrorCode = "DISPATCH_FAILED"

	// Agent capability errors
	CodeAgentUnavailable ErrorCode = "AGENT_UNAVAILABLE"
	CodeAgentAuth        ErrorCode = "AGENT_AUTH"
	CodeToolLimit        ErrorCode = "TOOL_LIMIT"

	// Cancellation
	CodeInterrupted ErrorCode = "INTERRUPTED"

	// Persistence errors
	CodeStorageFailed ErrorCode = "STORAGE_FAILED"

	// Configuration errors
	CodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
	CodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"

	// Parameter errors
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
)

// CopilotError is a structured error type that includes helpful
// information about what went wrong and how to fix it.
type CopilotError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g., the invalid value)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *CopilotError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chaining
func (e *CopilotError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *CopilotError) WithDetails(key string, value interface{}) *CopilotError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *CopilotError) WithCause(err error) *CopilotError {
	e.Cause = err
	return e
}

// --- Dispatch Errors ---

// PortUnavailable reports that the debugger command port cannot be reached.
// This is a dispatch failure, distinct from the debugger rejecting a
// specific command (which is carried as data in the tool result).
func PortUnavailable(err error) *CopilotError {
	return &CopilotError{
		Code:    CodePortUnavailable,
		Message: fmt.Sprintf("debugger command port is unusable: %v", err),
		Hint:    "The lldb-dap process may have exited. Check that a target is loaded and restart the session.",
		Cause:   err,
	}
}

// DispatchFailed reports a transport-level failure while running a command.
func DispatchFailed(command string, err error) *CopilotError {
	return &CopilotError{
		Code:    CodeDispatchFailed,
		Message: fmt.Sprintf("failed to dispatch debugger command: %v", err),
		Hint:    "The debugger connection broke mid-command. Re-ask your question after restarting the debug session.",
		Cause:   err,
		Details: map[string]interface{}{
			"command": command,
		},
	}
}

// --- Agent Capability Errors ---

// AgentUnavailable reports that the hosted model backend could not be reached.
func AgentUnavailable(provider string, err error) *CopilotError {
	return &CopilotError{
		Code:    CodeAgentUnavailable,
		Message: fmt.Sprintf("%s backend unavailable: %v", provider, err),
		Hint:    "Check network connectivity and the configured model name. Run 'lldb-copilot configure' to review settings.",
		Cause:   err,
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// AgentAuth reports missing or rejected credentials for the model backend.
func AgentAuth(provider string) *CopilotError {
	return &CopilotError{
		Code:    CodeAgentAuth,
		Message: fmt.Sprintf("no usable credentials for provider '%s'", provider),
		Hint:    fmt.Sprintf("Set an API key with 'lldb-copilot configure set %s.api_key <key>'.", provider),
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// ToolLimitExceeded reports that a run hit the bounded-iteration safeguard.
func ToolLimitExceeded(limit int) *CopilotError {
	return &CopilotError{
		Code:    CodeToolLimit,
		Message: fmt.Sprintf("agent exceeded the maximum of %d tool calls in one run", limit),
		Hint:    "The partial transcript was kept. Re-ask with a narrower question, or raise max_tool_calls in settings.",
		Details: map[string]interface{}{
			"limit": limit,
		},
	}
}

// --- Cancellation ---

// Interrupted reports a user-requested cancellation. It is a recognized
// outcome, not a failure.
func Interrupted() *CopilotError {
	return &CopilotError{
		Code:    CodeInterrupted,
		Message: "run interrupted by user",
		Hint:    "Nothing new was persisted. Re-ask your question to retry.",
	}
}

// --- Persistence Errors ---

// StorageFailed reports a transcript load/save I/O failure. The in-memory
// session survives so the caller can retry the save.
func StorageFailed(op string, err error) *CopilotError {
	return &CopilotError{
		Code:    CodeStorageFailed,
		Message: fmt.Sprintf("transcript %s failed: %v", op, err),
		Hint:    "Check permissions on the lldb-copilot configuration directory.",
		Cause:   err,
		Details: map[string]interface{}{
			"operation": op,
		},
	}
}

// --- Configuration Errors ---

// ConfigInvalid reports a malformed settings file or value.
func ConfigInvalid(reason string, err error) *CopilotError {
	return &CopilotError{
		Code:    CodeConfigInvalid,
		Message: fmt.Sprintf("settings are invalid: %s", reason),
		Hint:    "Fix the settings file or rewrite the offending key with 'lldb-copilot configure set'.",
		Cause:   err,
	}
}

// UnknownSettingKey reports an unrecognized settings key.
func UnknownSettingKey(key string, known []string) *CopilotError {
	return &CopilotError{
		Code:    CodeConfigNotFound,
		Message: fmt.Sprintf("unknown settings key '%s'", key),
		Hint:    fmt.Sprintf("Known keys: %s", strings.Join(known, ", ")),
		Details: map[string]interface{}{
			"key": key,
		},
	}
}

// --- Parameter Errors ---

// MissingParameter reports a missing required parameter.
func MissingParameter(paramName, description string) *CopilotError {
	return &CopilotError{
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("required parameter '%s' is missing", paramName),
		Hint:    description,
		Details: map[string]interface{}{
			"parameter": paramName,
		},
	}
}

// InvalidParameter reports an invalid parameter value.
func InvalidParameter(paramName string, value interface{}, expected string) *CopilotError {
	return &CopilotError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("invalid value for parameter '%s': %v", paramName, value),
		Hint:    fmt.Sprintf("Expected: %s", expected),
		Details: map[string]interface{}{
			"parameter": paramName,
			"value":     value,
			"expected":  expected,
		},
	}
}

// --- Helpers ---

// Wrap wraps a generic error with a code, message and hint.
func Wrap(code ErrorCode, message string, hint string, err error) *CopilotError {
	return &CopilotError{
		Code:    code,
		Message: message,
		Hint:    hint,
		Cause:   err,
	}
}

// FromError returns err as a *CopilotError, preserving existing structure.
func FromError(err error) *CopilotError {
	var ce *CopilotError
	if stderrors.As(err, &ce) {
		return ce
	}
	return &CopilotError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Cause:   err,
	}
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var ce *CopilotError
	return stderrors.As(err, &ce) && ce.Code == code
}
