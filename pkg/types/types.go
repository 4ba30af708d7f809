// Package types defines shared data types used across the LLDB copilot.
//
// This package provides type definitions for:
//   - TargetIdentity: Stable key identifying a debug target
//   - Turn: One user/agent/tool exchange in a conversation transcript
//   - ToolCall / ToolResult: A debugger-command request from the agent and
//     the captured outcome
//   - Session: An append-only transcript owned by one target identity
//
// These types are used throughout the codebase to maintain type safety
// and provide clear contracts between components.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// TargetIdentity is a stable, opaque key identifying a debug target.
// Transcripts are stored and loaded per identity.
type TargetIdentity string

// IdentityNoTarget is the synthetic identity used when no target is loaded.
const IdentityNoTarget TargetIdentity = "no-target"

// IdentityFor derives a TargetIdentity from an executable path and an
// architecture triple. The same executable and triple always produce the
// same identity; different targets never collide on the readable prefix
// alone because the hash covers both inputs.
func IdentityFor(executable, triple string) TargetIdentity {
	if executable == "" {
		return IdentityNoTarget
	}

	sum := sha256.Sum256([]byte(triple + "|" + executable))
	base := sanitizeIdentityPart(filepath.Base(executable))
	return TargetIdentity(fmt.Sprintf("%s-%s", base, hex.EncodeToString(sum[:6])))
}

func sanitizeIdentityPart(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "target"
	}
	return sb.String()
}

// Role identifies the author of a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleTool  Role = "tool"
)

// ToolLLDBCommand is the name of the one well-known tool the agent may
// call: execute a native LLDB command and observe its output.
const ToolLLDBCommand = "lldb_command"

// ToolResult is the captured outcome of one dispatched tool call.
type ToolResult struct {
	// Output is the text captured from the debugger.
	Output string `json:"output"`

	// Error is the debugger's error text, empty when none.
	Error string `json:"error,omitempty"`

	// Succeeded reports whether the debugger accepted the command.
	Succeeded bool `json:"succeeded"`

	// Interrupted is true when cancellation was requested before or
	// during execution.
	Interrupted bool `json:"interrupted,omitempty"`
}

// ToolCall is a structured request from the agent to run one debugger
// command. Result is nil while the call is pending.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    *ToolResult    `json:"result,omitempty"`
}

// Command returns the "command" argument, or "" when absent or not a string.
func (tc *ToolCall) Command() string {
	if tc == nil || tc.Arguments == nil {
		return ""
	}
	s, _ := tc.Arguments["command"].(string)
	return s
}

// Turn is one exchange in a transcript. Turns are immutable once appended.
type Turn struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current time.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// NewToolTurn creates a tool turn carrying a completed tool call.
func NewToolTurn(call ToolCall) Turn {
	return Turn{Role: RoleTool, ToolCalls: []ToolCall{call}, Timestamp: time.Now().UTC()}
}

// Session is the ordered transcript for one target identity. It is mutated
// only by appending turns; the transcript store owns the persisted copy.
type Session struct {
	Identity TargetIdentity `json:"identity"`
	Turns    []Turn         `json:"turns"`
}

// NewSession creates an empty session for the given identity.
func NewSession(identity TargetIdentity) *Session {
	return &Session{Identity: identity}
}

// Append adds a turn to the end of the transcript.
func (s *Session) Append(turn Turn) {
	s.Turns = append(s.Turns, turn)
}

// Len returns the number of turns.
func (s *Session) Len() int {
	return len(s.Turns)
}

// Clone returns a deep copy so callers can mutate freely without touching
// the original.
func (s *Session) Clone() *Session {
	out := &Session{Identity: s.Identity}
	out.Turns = make([]Turn, len(s.Turns))
	copy(out.Turns, s.Turns)
	for i := range out.Turns {
		if len(s.Turns[i].ToolCalls) > 0 {
			out.Turns[i].ToolCalls = make([]ToolCall, len(s.Turns[i].ToolCalls))
			copy(out.Turns[i].ToolCalls, s.Turns[i].ToolCalls)
			for j := range out.Turns[i].ToolCalls {
				if r := s.Turns[i].ToolCalls[j].Result; r != nil {
					cp := *r
					out.Turns[i].ToolCalls[j].Result = &cp
				}
			}
		}
	}
	return out
}
