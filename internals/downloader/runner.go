package downloader

import (
	"bufio"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// execRunner drives the yt-dlp binary. Progress lines arrive on stdout as
// "downloaded/total" byte pairs per the --progress-template flag.
type execRunner struct{}

func (execRunner) Download(url string, args []string, onProgress func(current, total int64)) error {
	cmd := exec.Command("yt-dlp", append(args, url)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdout)
	var lastLine string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lastLine = line
		if current, total, ok := parseProgress(line); ok {
			onProgress(current, total)
		}
	}

	if err := cmd.Wait(); err != nil {
		if lastLine != "" {
			return fmt.Errorf("%s: %w", lastLine, err)
		}
		return err
	}
	return nil
}

// parseProgress decodes a "downloaded/total" progress line. The engine
// reports byte counts as integers or floats and "NA" when a side is unknown;
// unknown or zero totals are dropped.
func parseProgress(line string) (current, total int64, ok bool) {
	parts := strings.SplitN(line, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	cur, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	tot, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || tot <= 0 {
		return 0, 0, false
	}
	return int64(cur), int64(tot), true
}
