package types_test

import (
	"strings"
	"testing"

	"github.com/0xeb/lldb-copilot/pkg/types"
)

// TestIdentityFor_Stable verifies the same executable and triple always
// produce the same identity.
func TestIdentityFor_Stable(t *testing.T) {
	a := types.IdentityFor("/usr/bin/crashy", "x86_64-unknown-linux-gnu")
	b := types.IdentityFor("/usr/bin/crashy", "x86_64-unknown-linux-gnu")
	if a != b {
		t.Errorf("identity not stable: %q vs %q", a, b)
	}
	if !strings.HasPrefix(string(a), "crashy-") {
		t.Errorf("expected readable basename prefix, got %q", a)
	}
}

// TestIdentityFor_Distinct verifies different paths and triples produce
// different identities.
func TestIdentityFor_Distinct(t *testing.T) {
	base := types.IdentityFor("/usr/bin/crashy", "x86_64-unknown-linux-gnu")

	if other := types.IdentityFor("/tmp/crashy", "x86_64-unknown-linux-gnu"); other == base {
		t.Errorf("different paths produced same identity %q", base)
	}
	if other := types.IdentityFor("/usr/bin/crashy", "arm64-apple-macosx"); other == base {
		t.Errorf("different triples produced same identity %q", base)
	}
}

// TestIdentityFor_NoTarget verifies the synthetic identity for an empty
// executable path.
func TestIdentityFor_NoTarget(t *testing.T) {
	if got := types.IdentityFor("", "x86_64"); got != types.IdentityNoTarget {
		t.Errorf("expected %q, got %q", types.IdentityNoTarget, got)
	}
}

// TestIdentityFor_Sanitized verifies identities stay filesystem-safe.
func TestIdentityFor_Sanitized(t *testing.T) {
	id := string(types.IdentityFor("/opt/my app (debug)", "x86_64"))
	for _, bad := range []string{" ", "(", ")", "/"} {
		if strings.Contains(id, bad) {
			t.Errorf("identity %q contains %q", id, bad)
		}
	}
}

// TestToolCall_Command verifies command extraction from arguments.
func TestToolCall_Command(t *testing.T) {
	call := &types.ToolCall{
		Name:      types.ToolLLDBCommand,
		Arguments: map[string]any{"command": "bt"},
	}
	if got := call.Command(); got != "bt" {
		t.Errorf("expected 'bt', got %q", got)
	}

	if got := (&types.ToolCall{}).Command(); got != "" {
		t.Errorf("expected empty command for missing arguments, got %q", got)
	}

	call = &types.ToolCall{Arguments: map[string]any{"command": 42}}
	if got := call.Command(); got != "" {
		t.Errorf("expected empty command for non-string argument, got %q", got)
	}
}

// TestSession_Clone verifies a clone can be mutated without touching the
// original transcript.
func TestSession_Clone(t *testing.T) {
	sess := types.NewSession("crashy-abc123")
	sess.Append(types.NewTurn(types.RoleUser, "why did it crash?"))
	sess.Append(types.NewToolTurn(types.ToolCall{
		ID:        "call-1",
		Name:      types.ToolLLDBCommand,
		Arguments: map[string]any{"command": "bt"},
		Result:    &types.ToolResult{Output: "#0 main", Succeeded: true},
	}))

	clone := sess.Clone()
	clone.Append(types.NewTurn(types.RoleAgent, "SIGSEGV in main"))
	clone.Turns[1].ToolCalls[0].Result.Output = "mutated"

	if sess.Len() != 2 {
		t.Errorf("original session grew to %d turns", sess.Len())
	}
	if got := sess.Turns[1].ToolCalls[0].Result.Output; got != "#0 main" {
		t.Errorf("original tool result mutated: %q", got)
	}
	if clone.Len() != 3 {
		t.Errorf("expected 3 turns in clone, got %d", clone.Len())
	}
}
