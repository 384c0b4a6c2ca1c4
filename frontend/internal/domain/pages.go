package frontend_domain

import (
	"html/template"

	"github.com/itchan-dev/emojiprofile/shared/domain"
)

type MoodOption struct {
	Mood     domain.Mood
	Selected bool
}

// FileInfo describes the selected upload without its bytes.
type FileInfo struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Digest   string `json:"digest"`
}

// IndexPageData drives the four steps of the page: upload, mood, convert, result.
type IndexPageData struct {
	Moods        []MoodOption
	SelectedMood domain.Mood
	Phase        string

	File           *FileInfo
	PreviewURL     string
	PreviewPending bool
	PreviewFailed  bool

	Loading    bool
	CanConvert bool

	HasResult        bool
	ResultURL        string
	ResultMood       domain.Mood
	DownloadFilename string

	// seconds between automatic reloads while something is pending, 0 disables
	RefreshSeconds int
}

type AboutPageData struct {
	Content template.HTML
}
