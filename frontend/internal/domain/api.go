package frontend_domain

import "github.com/itchan-dev/emojiprofile/shared/domain"

type MoodsResponse struct {
	Moods   []domain.Mood `json:"moods"`
	Default domain.Mood   `json:"default"`
}

// StateResponse is the JSON view of a session's controller state.
type StateResponse struct {
	Phase            string      `json:"phase"`
	Mood             domain.Mood `json:"mood"`
	File             *FileInfo   `json:"file,omitempty"`
	PreviewURL       string      `json:"preview_url,omitempty"`
	PreviewPending   bool        `json:"preview_pending"`
	PreviewFailed    bool        `json:"preview_failed"`
	Loading          bool        `json:"loading"`
	CanConvert       bool        `json:"can_convert"`
	ResultURL        string      `json:"result_url,omitempty"`
	ResultMood       domain.Mood `json:"result_mood,omitempty"`
	DownloadFilename string      `json:"download_filename,omitempty"`
}
