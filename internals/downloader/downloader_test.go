package downloader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/telegrab/telegrab/internals/extractor"
)

type fakeRunner struct {
	fn func(url string, args []string, onProgress func(current, total int64)) error
}

func (f fakeRunner) Download(url string, args []string, onProgress func(current, total int64)) error {
	return f.fn(url, args, onProgress)
}

func newTestJob(t *testing.T, c extractor.Candidate) Job {
	t.Helper()
	dir, err := os.MkdirTemp("", "telegrab-test-*")
	if err != nil {
		t.Fatal(err)
	}
	return Job{Candidate: c, WorkDir: dir}
}

func writeOutput(t *testing.T, dir, name string, size int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if size > 0 {
		if err := f.Truncate(size); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func assertWorkspaceGone(t *testing.T, dir string) {
	t.Helper()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workspace %s still exists after Run", dir)
	}
}

func TestRunUploadsAndCleansWorkspace(t *testing.T) {
	job := newTestJob(t, extractor.Candidate{
		Kind: extractor.KindVideo, Height: 720, Title: "clip", SourceURL: "u",
	})

	orch := &Orchestrator{Runner: fakeRunner{fn: func(url string, args []string, _ func(int64, int64)) error {
		writeOutput(t, job.WorkDir, "clip.mp4", 1024)
		return nil
	}}}

	var uploaded string
	err := orch.Run(job, func(path string) error {
		uploaded = path
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if filepath.Base(uploaded) != "clip.mp4" {
		t.Errorf("uploaded %q, want clip.mp4", uploaded)
	}
	assertWorkspaceGone(t, job.WorkDir)
}

func TestRunCleansWorkspaceOnEngineFailure(t *testing.T) {
	job := newTestJob(t, extractor.Candidate{Kind: extractor.KindVideo, Height: 480, Title: "x", SourceURL: "u"})

	orch := &Orchestrator{Runner: fakeRunner{fn: func(string, []string, func(int64, int64)) error {
		return errors.New("network unreachable")
	}}}

	uploadCalled := false
	err := orch.Run(job, func(string) error {
		uploadCalled = true
		return nil
	})
	if err == nil {
		t.Fatal("Run() succeeded, want error")
	}
	if uploadCalled {
		t.Error("upload called after engine failure")
	}
	assertWorkspaceGone(t, job.WorkDir)
}

func TestRunNoOutputFile(t *testing.T) {
	job := newTestJob(t, extractor.Candidate{Kind: extractor.KindVideo, Height: 480, Title: "ghost", SourceURL: "u"})

	// Engine reports success but writes nothing.
	orch := &Orchestrator{Runner: fakeRunner{fn: func(string, []string, func(int64, int64)) error {
		return nil
	}}}

	err := orch.Run(job, func(string) error { return nil })
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("Run() error = %v, want ErrNoOutput", err)
	}
	assertWorkspaceGone(t, job.WorkDir)
}

func TestRunSizeLimit(t *testing.T) {
	tests := []struct {
		name       string
		kind       extractor.Kind
		size       int64
		wantLimit  bool
		wantUpload bool
	}{
		{"video over ceiling", extractor.KindVideo, MaxFileSize + 1, true, false},
		{"video at ceiling", extractor.KindVideo, MaxFileSize, false, true},
		{"audio skips check", extractor.KindAudio, MaxFileSize + 1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newTestJob(t, extractor.Candidate{
				Kind: tt.kind, Height: 1080, FormatID: "251", Title: "big", SourceURL: "u",
			})

			orch := &Orchestrator{Runner: fakeRunner{fn: func(string, []string, func(int64, int64)) error {
				// Sparse file: Truncate allocates no blocks.
				writeOutput(t, job.WorkDir, "big.mp4", tt.size)
				return nil
			}}}

			uploadCalled := false
			err := orch.Run(job, func(string) error {
				uploadCalled = true
				return nil
			})

			if tt.wantLimit && !errors.Is(err, ErrSizeLimit) {
				t.Fatalf("Run() error = %v, want ErrSizeLimit", err)
			}
			if !tt.wantLimit && err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if uploadCalled != tt.wantUpload {
				t.Errorf("upload called = %v, want %v", uploadCalled, tt.wantUpload)
			}
			assertWorkspaceGone(t, job.WorkDir)
		})
	}
}

func TestRunCleansWorkspaceOnUploadFailure(t *testing.T) {
	job := newTestJob(t, extractor.Candidate{Kind: extractor.KindAudio, FormatID: "140", Title: "song", SourceURL: "u"})

	orch := &Orchestrator{Runner: fakeRunner{fn: func(string, []string, func(int64, int64)) error {
		writeOutput(t, job.WorkDir, "song.m4a", 10)
		return nil
	}}}

	wantErr := errors.New("transport said no")
	err := orch.Run(job, func(string) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want %v", err, wantErr)
	}
	assertWorkspaceGone(t, job.WorkDir)
}

func TestFormatSelector(t *testing.T) {
	tests := []struct {
		name string
		c    extractor.Candidate
		want string
	}{
		{
			name: "video uses height ceiling",
			c:    extractor.Candidate{Kind: extractor.KindVideo, Height: 720},
			want: "bestvideo[height<=720]+bestaudio/best[height<=720]",
		},
		{
			name: "audio pins format id",
			c:    extractor.Candidate{Kind: extractor.KindAudio, FormatID: "251"},
			want: "251",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSelector(tt.c); got != tt.want {
				t.Errorf("formatSelector() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildArgs(t *testing.T) {
	video := extractor.Candidate{Kind: extractor.KindVideo, Height: 480}
	audio := extractor.Candidate{Kind: extractor.KindAudio, FormatID: "140"}

	t.Run("video merges into mp4", func(t *testing.T) {
		args := strings.Join((&Orchestrator{}).buildArgs(video, "out.%(ext)s"), " ")
		if !strings.Contains(args, "--merge-output-format mp4") {
			t.Errorf("args missing merge flag: %s", args)
		}
		if strings.Contains(args, "--cookies") {
			t.Errorf("args contain cookies without a cookie file: %s", args)
		}
	})

	t.Run("audio skips merge", func(t *testing.T) {
		args := strings.Join((&Orchestrator{}).buildArgs(audio, "out.%(ext)s"), " ")
		if strings.Contains(args, "--merge-output-format") {
			t.Errorf("audio args contain merge flag: %s", args)
		}
	})

	t.Run("cookies attached when present", func(t *testing.T) {
		o := &Orchestrator{CookieFile: "cookies.txt"}
		args := strings.Join(o.buildArgs(video, "out.%(ext)s"), " ")
		if !strings.Contains(args, "--cookies cookies.txt") {
			t.Errorf("args missing cookies: %s", args)
		}
	})
}

func TestResolveOutput(t *testing.T) {
	dir := t.TempDir()
	writeOutput(t, dir, "My Clip.mkv", 1)
	writeOutput(t, dir, "unrelated.txt", 1)

	path, err := resolveOutput(dir, "My Clip")
	if err != nil {
		t.Fatalf("resolveOutput() error = %v", err)
	}
	if filepath.Base(path) != "My Clip.mkv" {
		t.Errorf("resolved %q, want My Clip.mkv", path)
	}

	if _, err := resolveOutput(dir, "Missing"); !errors.Is(err, ErrNoOutput) {
		t.Errorf("error = %v, want ErrNoOutput", err)
	}
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line        string
		wantCurrent int64
		wantTotal   int64
		wantOK      bool
	}{
		{"1024/4096", 1024, 4096, true},
		{"1024.0/4096.5", 1024, 4096, true},
		{"NA/NA", 0, 0, false},
		{"500/NA", 0, 0, false},
		{"100/0", 0, 0, false},
		{"[download] Destination: clip.mp4", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		current, total, ok := parseProgress(tt.line)
		if ok != tt.wantOK || current != tt.wantCurrent || total != tt.wantTotal {
			t.Errorf("parseProgress(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tt.line, current, total, ok, tt.wantCurrent, tt.wantTotal, tt.wantOK)
		}
	}
}
