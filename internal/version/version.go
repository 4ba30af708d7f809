// Package version provides version information and release checking.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// Version is the current version of lldb-copilot
	Version = "0.1.0"

	// GitHubRepo is the repository path
	GitHubRepo = "0xeb/lldb-copilot"

	githubAPIURL = "https://api.github.com/repos/%s/releases/latest"
)

// UpdateInfo describes the result of a release check.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version,omitempty"`
	UpdateAvailable bool      `json:"update_available"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
	Error           string    `json:"error,omitempty"`
}

// UpdateMessage returns a human-readable message when an update exists.
func (u *UpdateInfo) UpdateMessage() string {
	if u.Error != "" || !u.UpdateAvailable {
		return ""
	}
	return fmt.Sprintf("A new version of lldb-copilot is available: v%s (current: v%s). See %s",
		u.LatestVersion, u.CurrentVersion, u.ReleaseURL)
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckForUpdates queries GitHub for the latest release. Network and
// API failures are reported in the Error field rather than returned.
func CheckForUpdates(ctx context.Context) *UpdateInfo {
	info := &UpdateInfo{
		CurrentVersion: Version,
		CheckedAt:      time.Now(),
	}

	if ctx == nil {
		ctx = context.Background()
	}

	client := &http.Client{Timeout: 5 * time.Second}

	url := fmt.Sprintf(githubAPIURL, GitHubRepo)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		info.Error = fmt.Sprintf("failed to create request: %v", err)
		return info
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "lldb-copilot/"+Version)

	resp, err := client.Do(req)
	if err != nil {
		info.Error = fmt.Sprintf("failed to check for updates: %v", err)
		return info
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		info.Error = fmt.Sprintf("GitHub API returned status %d", resp.StatusCode)
		return info
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		info.Error = fmt.Sprintf("failed to parse response: %v", err)
		return info
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	info.LatestVersion = latest
	info.ReleaseURL = release.HTMLURL
	info.UpdateAvailable = compareVersions(Version, latest) < 0
	return info
}

// compareVersions compares two semver strings.
// Returns -1 if v1 < v2, 0 if equal, 1 if v1 > v2.
func compareVersions(v1, v2 string) int {
	parse := func(v string) (major, minor, patch int) {
		parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
		if len(parts) >= 1 {
			fmt.Sscanf(parts[0], "%d", &major)
		}
		if len(parts) >= 2 {
			fmt.Sscanf(parts[1], "%d", &minor)
		}
		if len(parts) >= 3 {
			patchStr := strings.Split(parts[2], "-")[0]
			fmt.Sscanf(patchStr, "%d", &patch)
		}
		return
	}

	maj1, min1, pat1 := parse(v1)
	maj2, min2, pat2 := parse(v2)

	switch {
	case maj1 != maj2:
		if maj1 < maj2 {
			return -1
		}
		return 1
	case min1 != min2:
		if min1 < min2 {
			return -1
		}
		return 1
	case pat1 != pat2:
		if pat1 < pat2 {
			return -1
		}
		return 1
	}
	return 0
}
