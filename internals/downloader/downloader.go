// Package downloader carries a consumed selection through fetch, size
// validation, upload and cleanup. One Run per selection; concurrent runs
// share nothing.
package downloader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/telegrab/telegrab/internals/extractor"
	"github.com/telegrab/telegrab/internals/progress"
)

// Telegram refuses uploads above 2 GiB. The boundary is strictly
// greater-than: a file of exactly the ceiling is accepted.
const MaxFileSize = 2 * 1024 * 1024 * 1024

var (
	// ErrNoOutput means the engine reported success but wrote no file
	// matching the expected stem.
	ErrNoOutput = errors.New("download produced no output file")
	// ErrSizeLimit means the staged file exceeds the upload ceiling.
	ErrSizeLimit = errors.New("file exceeds 2GB upload limit")
)

// Job is one orchestration run for a consumed selection.
type Job struct {
	Candidate extractor.Candidate
	WorkDir   string
	Progress  progress.Sink
}

// UploadFunc hands a staged file to the chat transport.
type UploadFunc func(path string) error

// Runner executes the extraction engine's download capability. It is a seam
// so failure paths can be exercised without the binary.
type Runner interface {
	Download(url string, args []string, onProgress func(current, total int64)) error
}

type Orchestrator struct {
	CookieFile string
	Runner     Runner
}

func New(cookieFile string) *Orchestrator {
	return &Orchestrator{CookieFile: cookieFile, Runner: execRunner{}}
}

// Run fetches the selected rendition into the job workspace, validates it,
// and hands it to upload. The workspace is removed on every exit path.
func (o *Orchestrator) Run(job Job, upload UploadFunc) (err error) {
	defer os.RemoveAll(job.WorkDir)

	outTemplate := filepath.Join(job.WorkDir, job.Candidate.Title+".%(ext)s")
	args := o.buildArgs(job.Candidate, outTemplate)

	report := func(current, total int64) {
		if job.Progress != nil && total > 0 {
			job.Progress.Report(current, total, progress.PhaseDownloading)
		}
	}
	if err := o.Runner.Download(job.Candidate.SourceURL, args, report); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	path, err := resolveOutput(job.WorkDir, job.Candidate.Title)
	if err != nil {
		return err
	}

	if job.Candidate.Kind == extractor.KindVideo {
		// Only video jobs check the ceiling; audio keeps the original
		// unchecked behavior.
		stat, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat output: %w", err)
		}
		if stat.Size() > MaxFileSize {
			return ErrSizeLimit
		}
	}

	return upload(path)
}

// buildArgs assembles the engine invocation for the candidate. Video requests
// the best stream at or below the height ceiling merged with best audio;
// audio pins the exact format id recorded at probe time.
func (o *Orchestrator) buildArgs(c extractor.Candidate, outTemplate string) []string {
	args := []string{
		"-f", formatSelector(c),
		"-o", outTemplate,
		"--newline",
		"--no-playlist",
		"--progress-template", "%(progress.downloaded_bytes)s/%(progress.total_bytes)s",
	}
	if c.Kind == extractor.KindVideo {
		args = append(args, "--merge-output-format", "mp4")
	}
	if o.CookieFile != "" {
		args = append(args, "--cookies", o.CookieFile)
	}
	return args
}

func formatSelector(c extractor.Candidate) string {
	if c.Kind == extractor.KindAudio {
		return c.FormatID
	}
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", c.Height, c.Height)
}

// resolveOutput locates the produced file by stem. The extension is
// engine-determined (container negotiated during merge), so only the base
// name up to the extension is matched.
func resolveOutput(dir, stem string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read workspace: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem {
			return filepath.Join(dir, name), nil
		}
	}
	return "", ErrNoOutput
}
