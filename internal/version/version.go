// Package version checks GitHub releases for newer versions of this
// daemon than the one currently running.
package version

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const tagsURL = "https://api.github.com/repos/pilot-net/pathwatch/tags"

type tag struct {
	Name string `json:"name"`
}

// Checker queries GitHub tags for the latest release name.
type Checker struct {
	client  *http.Client
	current string
	tagsURL string
}

func NewChecker(current string) *Checker {
	return &Checker{client: &http.Client{Timeout: 5 * time.Second}, current: current, tagsURL: tagsURL}
}

// NewCheckerWithTagsURL builds a Checker against a custom tags
// endpoint, primarily for tests.
func NewCheckerWithTagsURL(current, url string) *Checker {
	return &Checker{client: &http.Client{Timeout: 5 * time.Second}, current: current, tagsURL: url}
}

// LatestVersion fetches the most recent tag name, with any leading
// "v" stripped. Returns ok=false on any failure.
func (c *Checker) LatestVersion(ctx context.Context) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tagsURL, nil)
	if err != nil {
		return "", false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var tags []tag
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return "", false
	}
	if len(tags) == 0 {
		return "", false
	}
	latest := strings.TrimPrefix(tags[0].Name, "v")
	if latest == "" {
		return "", false
	}
	return latest, true
}

// CheckUpdateAvailable reports whether a newer version than current is
// published, comparing dotted version segments numerically.
func (c *Checker) CheckUpdateAvailable(ctx context.Context) (available bool, current string, latest string, ok bool) {
	latestVersion, found := c.LatestVersion(ctx)
	if !found {
		return false, c.current, "", false
	}
	return compareVersions(latestVersion, c.current) > 0, c.current, latestVersion, true
}

func compareVersions(a, b string) int {
	aParts := versionParts(a)
	bParts := versionParts(b)
	for len(aParts) < len(bParts) {
		aParts = append(aParts, 0)
	}
	for len(bParts) < len(aParts) {
		bParts = append(bParts, 0)
	}
	for i := range aParts {
		if aParts[i] != bParts[i] {
			if aParts[i] > bParts[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

func versionParts(v string) []int {
	segments := strings.Split(v, ".")
	out := make([]int, 0, len(segments))
	for _, s := range segments {
		n, err := strconv.Atoi(s)
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}
