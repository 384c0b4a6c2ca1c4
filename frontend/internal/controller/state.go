package controller

import (
	"errors"

	"github.com/itchan-dev/emojiprofile/frontend/internal/resource"
	"github.com/itchan-dev/emojiprofile/shared/domain"
	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFileReady
	PhaseConverting
	PhaseConverted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFileReady:
		return "file_ready"
	case PhaseConverting:
		return "converting"
	case PhaseConverted:
		return "converted"
	}
	return "unknown"
}

// State is everything the page needs to render one session's flow.
// It is only ever changed by Transition.
type State struct {
	File       *domain.SelectedFile
	Generation uint64 // bumped on every file selection, tags preview decodes

	Mood domain.Mood

	Preview       resource.Handle
	PreviewFailed bool

	Result     resource.Handle
	ResultMood domain.Mood // mood submitted for the call that produced Result

	Loading   bool
	RequestID uint64

	// what the in-flight request was started with
	inFlightGeneration uint64
	inFlightMood       domain.Mood

	Closed bool
}

func NewState() State {
	return State{Mood: domain.DefaultMood}
}

func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseConverting
	case s.File == nil:
		return PhaseIdle
	case !s.Result.IsZero():
		return PhaseConverted
	default:
		return PhaseFileReady
	}
}

// CanConvert mirrors the enabled state of the convert control.
func (s State) CanConvert() bool {
	return s.File != nil && !s.Loading && !s.Closed
}

func (s State) HasResult() bool {
	return !s.Result.IsZero()
}

// PreviewPending is true between a file selection and its decode outcome.
func (s State) PreviewPending() bool {
	return s.File != nil && s.Preview.IsZero() && !s.PreviewFailed
}

type NoticeLevel string

const (
	LevelInfo    NoticeLevel = "info"
	LevelWarning NoticeLevel = "warning"
	LevelError   NoticeLevel = "error"
)

// Notice is a user-facing message produced by a transition.
type Notice struct {
	Kind    error
	Level   NoticeLevel
	Message string
}

// Code is a stable identifier of the notice kind for API clients.
func (n Notice) Code() string {
	switch {
	case errors.Is(n.Kind, internal_errors.ErrMissingInput):
		return "missing_input"
	case errors.Is(n.Kind, internal_errors.ErrConversionFailed):
		return "conversion_failed"
	case errors.Is(n.Kind, internal_errors.ErrDecodeFailure):
		return "decode_failure"
	case errors.Is(n.Kind, internal_errors.ErrBusy):
		return "busy"
	case errors.Is(n.Kind, internal_errors.ErrInvalidMood):
		return "invalid_mood"
	}
	return "notice"
}
