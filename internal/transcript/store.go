// Package transcript persists per-target conversation transcripts across
// process lifetimes.
//
// Each target identity owns one JSON record under the copilot's
// configuration directory. Saves replace the record atomically
// (write-to-temp-then-rename) so a reader never observes a torn write,
// and the encoding is deterministic so saving an unchanged session is a
// byte-identical no-op.
package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

// Store keeps one transcript file per target identity.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cperrors.StorageFailed("init", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// DefaultDir returns the default transcript directory under the user
// configuration directory.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lldb-copilot", "sessions"), nil
}

// Load returns the stored session for the identity, or an empty session
// when none exists yet. "Not found" is never an error.
func (s *Store) Load(identity types.TargetIdentity) (*types.Session, error) {
	data, err := os.ReadFile(s.path(identity))
	if os.IsNotExist(err) {
		return types.NewSession(identity), nil
	}
	if err != nil {
		return nil, cperrors.StorageFailed("load", err)
	}

	var sess types.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, cperrors.StorageFailed("load", err)
	}
	// The record is keyed by filename; the identity inside must win so a
	// renamed file cannot silently merge histories.
	sess.Identity = identity

	return &sess, nil
}

// Save atomically replaces the record for the session's identity.
func (s *Store) Save(sess *types.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return cperrors.StorageFailed("save", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".session-*.json")
	if err != nil {
		return cperrors.StorageFailed("save", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return cperrors.StorageFailed("save", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return cperrors.StorageFailed("save", err)
	}
	if err := os.Rename(tmpName, s.path(sess.Identity)); err != nil {
		os.Remove(tmpName)
		return cperrors.StorageFailed("save", err)
	}

	s.logger.Debug("transcript saved",
		zap.String("identity", string(sess.Identity)),
		zap.Int("turns", sess.Len()))

	return nil
}

// Clear truncates the stored transcript for the identity. Idempotent:
// clearing an identity that was never saved is not an error.
func (s *Store) Clear(identity types.TargetIdentity) error {
	err := os.Remove(s.path(identity))
	if err != nil && !os.IsNotExist(err) {
		return cperrors.StorageFailed("clear", err)
	}
	s.logger.Debug("transcript cleared", zap.String("identity", string(identity)))
	return nil
}

// Identities lists every identity with a stored transcript, sorted.
func (s *Store) Identities() ([]types.TargetIdentity, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, cperrors.StorageFailed("list", err)
	}

	var out []types.TargetIdentity
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		out = append(out, types.TargetIdentity(strings.TrimSuffix(name, ".json")))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out, nil
}

func (s *Store) path(identity types.TargetIdentity) string {
	return filepath.Join(s.dir, string(identity)+".json")
}
