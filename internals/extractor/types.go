package extractor

// Format is one encoded stream as reported by the extraction engine's
// JSON probe. Absent fields decode to zero values.
type Format struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	Vcodec         string  `json:"vcodec"`
	Acodec         string  `json:"acodec"`
	ABR            float64 `json:"abr"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
}

// VideoInfo is the metadata document returned by a probe.
type VideoInfo struct {
	Title    string   `json:"title"`
	Duration float64  `json:"duration"`
	Formats  []Format `json:"formats"`
}

type Kind int

const (
	KindVideo Kind = iota
	KindAudio
)

// Candidate is one selectable rendition presented to the user. For video
// candidates Height is the resolution ceiling re-resolved at download time;
// for audio candidates FormatID pins the exact stream.
type Candidate struct {
	Kind      Kind
	Height    int
	FormatID  string
	Ext       string
	ABR       float64
	Duration  float64
	Size      int64 // 0 = unknown
	HasAudio  bool
	Label     string
	SourceURL string
	Title     string
}
