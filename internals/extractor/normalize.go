package extractor

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

const maxTitleLen = 100

// Normalize turns a probed metadata document into the ordered candidate list
// shown to the user: one entry per distinct video height, highest first, then
// at most one best-audio entry.
func Normalize(url string, info *VideoInfo) (string, []Candidate) {
	title := SanitizeTitle(info.Title)

	var candidates []Candidate

	sorted := make([]Format, len(info.Formats))
	copy(sorted, info.Formats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Height > sorted[j].Height
	})

	seen := make(map[int]bool)
	for _, f := range sorted {
		if f.Height == 0 || f.Vcodec == "none" {
			continue
		}
		if seen[f.Height] {
			continue
		}
		seen[f.Height] = true

		size := displaySize(f)
		hasAudio := f.Acodec != "none"
		suffix := "+merged"
		if hasAudio {
			suffix = "~audio"
		}
		candidates = append(candidates, Candidate{
			Kind:      KindVideo,
			Height:    f.Height,
			Ext:       f.Ext,
			Size:      size,
			HasAudio:  hasAudio,
			Label:     fmt.Sprintf("%dp %s - %s", f.Height, suffix, FormatSize(size)),
			SourceURL: url,
			Title:     title,
		})
	}

	if best, ok := bestAudio(info.Formats); ok {
		size := displaySize(best)
		candidates = append(candidates, Candidate{
			Kind:      KindAudio,
			FormatID:  best.FormatID,
			Ext:       best.Ext,
			ABR:       best.ABR,
			Duration:  info.Duration,
			Size:      size,
			Label:     fmt.Sprintf("🎵 Audio Only (%s) - %s", best.Ext, FormatSize(size)),
			SourceURL: url,
			Title:     title,
		})
	}

	return title, candidates
}

// bestAudio picks the pure-audio stream with the highest bitrate. Ties keep
// the earlier stream, preserving the engine's native ordering.
func bestAudio(formats []Format) (Format, bool) {
	var best Format
	found := false
	for _, f := range formats {
		if f.Vcodec != "none" || f.Acodec == "none" {
			continue
		}
		if !found || f.ABR > best.ABR {
			best = f
			found = true
		}
	}
	return best, found
}

func displaySize(f Format) int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	return f.FilesizeApprox
}

// SanitizeTitle keeps letters and digits in any script plus space, hyphen,
// underscore and dot, replaces everything else with underscores, and caps
// the result at 100 runes.
func SanitizeTitle(title string) string {
	if title == "" {
		title = "Untitled"
	}
	var b strings.Builder
	n := 0
	for _, r := range title {
		if n >= maxTitleLen {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		n++
	}
	return strings.TrimSpace(b.String())
}

// FormatSize renders a byte count as "123.4 MB", or "?" when unknown.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "?"
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}

// FormatDuration renders seconds as "4m 32s".
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
