// Package config provides settings management for the LLDB copilot.
//
// Settings control:
//   - Which hosted-model provider answers questions (gemini or openai)
//   - Per-provider credentials and model parameters
//   - The lldb-dap binary used for the debugger command port
//   - Safety limits (maximum tool calls per run)
//
// Settings live in a YAML file under the user configuration directory and
// are written back immediately on every mutation: a change acknowledged to
// the user must survive a crash.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
)

// Provider identifiers accepted in Settings.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultMaxToolCalls bounds a single agent run against runaway tool loops.
const DefaultMaxToolCalls = 25

// Settings holds the process-wide copilot configuration.
type Settings struct {
	// Provider selects the hosted-model backend: "gemini" or "openai".
	Provider string `yaml:"provider"`

	Gemini GeminiSettings `yaml:"gemini"`
	OpenAI OpenAISettings `yaml:"openai"`

	// LLDB configures the debugger command port.
	LLDB LLDBSettings `yaml:"lldb"`

	// MaxToolCalls bounds tool-call iterations in one run.
	MaxToolCalls int `yaml:"max_tool_calls"`

	// path is where the settings were loaded from; Set writes back here.
	path string
}

// GeminiSettings holds Gemini-specific configuration.
type GeminiSettings struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model"`
}

// OpenAISettings holds configuration for any OpenAI-compatible backend.
type OpenAISettings struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// LLDBSettings holds lldb-dap configuration.
type LLDBSettings struct {
	// DapPath is the lldb-dap binary (formerly lldb-vscode).
	DapPath string `yaml:"dap_path"`
}

// findLLDBDap searches for lldb-dap in common locations across platforms
func findLLDBDap() string {
	// Check PATH first
	if path, err := exec.LookPath("lldb-dap"); err == nil {
		return path
	}

	// Platform-specific search locations
	locations := []string{
		// macOS - Xcode Command Line Tools and Xcode.app
		"/Library/Developer/CommandLineTools/usr/bin/lldb-dap",
		"/Applications/Xcode.app/Contents/Developer/usr/bin/lldb-dap",
		"/opt/homebrew/bin/lldb-dap",
		"/usr/local/bin/lldb-dap",

		// Linux - LLVM/Clang package installations
		"/usr/bin/lldb-dap",
		"/usr/bin/lldb-dap-18",
		"/usr/bin/lldb-dap-17",
		"/usr/bin/lldb-dap-16",
		"/usr/lib/llvm-18/bin/lldb-dap",
		"/usr/lib/llvm-17/bin/lldb-dap",
		"/usr/lib/llvm-16/bin/lldb-dap",
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	// Check for lldb-vscode (older name, pre-LLVM 16)
	if path, err := exec.LookPath("lldb-vscode"); err == nil {
		return path
	}

	// Fall back to default name (will fail if not in PATH, but provides clear error)
	return "lldb-dap"
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Provider: ProviderGemini,
		Gemini: GeminiSettings{
			Model: "gemini-2.0-flash",
		},
		OpenAI: OpenAISettings{
			Model: "gpt-4o",
		},
		LLDB: LLDBSettings{
			DapPath: findLLDBDap(),
		},
		MaxToolCalls: DefaultMaxToolCalls,
	}
}

// DefaultPath returns the default settings file location under the user
// configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lldb-copilot", "settings.yaml"), nil
}

// Load reads settings from path, falling back to defaults for anything the
// file does not set. A missing file is not an error; the defaults are used
// and the path remembered for the first write.
func Load(path string) (*Settings, error) {
	s := DefaultSettings()
	s.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, cperrors.ConfigInvalid("cannot read settings file", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, cperrors.ConfigInvalid("settings file is not valid YAML", err)
	}
	if s.MaxToolCalls <= 0 {
		s.MaxToolCalls = DefaultMaxToolCalls
	}

	return s, nil
}

// Save writes the settings to their file, creating the directory as needed.
// The write goes through a temp file and rename so a crash cannot leave a
// torn settings file behind.
func (s *Settings) Save() error {
	if s.path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cperrors.ConfigInvalid("cannot resolve settings path", err)
		}
		s.path = p
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return cperrors.ConfigInvalid("cannot create settings directory", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return cperrors.ConfigInvalid("cannot encode settings", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.yaml")
	if err != nil {
		return cperrors.ConfigInvalid("cannot create temp settings file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return cperrors.ConfigInvalid("cannot write settings", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return cperrors.ConfigInvalid("cannot write settings", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return cperrors.ConfigInvalid("cannot replace settings file", err)
	}

	return nil
}

// Path returns where the settings are persisted.
func (s *Settings) Path() string { return s.path }

// settingKeys lists the dotted keys accepted by Set and Get.
var settingKeys = []string{
	"provider",
	"gemini.api_key",
	"gemini.model",
	"openai.api_key",
	"openai.base_url",
	"openai.model",
	"lldb.dap_path",
	"max_tool_calls",
}

// Keys returns the dotted settings keys understood by Set and Get.
func Keys() []string {
	out := make([]string, len(settingKeys))
	copy(out, settingKeys)
	return out
}

// Set updates one setting by dotted key and immediately persists the
// change. A write failure leaves the in-memory value updated so the caller
// can retry the save.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "provider":
		if value != ProviderGemini && value != ProviderOpenAI {
			return cperrors.InvalidParameter("provider", value, "gemini or openai")
		}
		s.Provider = value
	case "gemini.api_key":
		s.Gemini.APIKey = value
	case "gemini.model":
		s.Gemini.Model = value
	case "openai.api_key":
		s.OpenAI.APIKey = value
	case "openai.base_url":
		s.OpenAI.BaseURL = value
	case "openai.model":
		s.OpenAI.Model = value
	case "lldb.dap_path":
		s.LLDB.DapPath = value
	case "max_tool_calls":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return cperrors.InvalidParameter("max_tool_calls", value, "a positive integer")
		}
		s.MaxToolCalls = n
	default:
		return cperrors.UnknownSettingKey(key, settingKeys)
	}

	return s.Save()
}

// Get returns one setting by dotted key. Secrets come back redacted.
func (s *Settings) Get(key string) (string, error) {
	switch key {
	case "provider":
		return s.Provider, nil
	case "gemini.api_key":
		return redact(s.Gemini.APIKey), nil
	case "gemini.model":
		return s.Gemini.Model, nil
	case "openai.api_key":
		return redact(s.OpenAI.APIKey), nil
	case "openai.base_url":
		return s.OpenAI.BaseURL, nil
	case "openai.model":
		return s.OpenAI.Model, nil
	case "lldb.dap_path":
		return s.LLDB.DapPath, nil
	case "max_tool_calls":
		return strconv.Itoa(s.MaxToolCalls), nil
	default:
		return "", cperrors.UnknownSettingKey(key, settingKeys)
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return fmt.Sprintf("%s****%s", secret[:3], secret[len(secret)-3:])
}
