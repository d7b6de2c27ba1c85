package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor probes URLs through the yt-dlp binary. CookieFile, when
// non-empty, is passed to every invocation for authenticated sites.
type Extractor struct {
	CookieFile string
}

// Probe fetches the metadata document for url without downloading anything.
func (e Extractor) Probe(url string) (*VideoInfo, error) {
	args := []string{"-J", "--no-playlist", "--quiet"}
	if e.CookieFile != "" {
		args = append(args, "--cookies", e.CookieFile)
	}
	args = append(args, url)

	cmd := exec.Command("yt-dlp", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("yt-dlp: %s", lastLine(msg))
		}
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	var info VideoInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &info, nil
}

// lastLine trims a multi-line stderr dump down to its final line, which is
// where yt-dlp puts the actual error.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
