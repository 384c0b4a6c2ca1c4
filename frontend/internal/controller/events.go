package controller

import (
	"github.com/itchan-dev/emojiprofile/frontend/internal/resource"
	"github.com/itchan-dev/emojiprofile/shared/domain"
)

// Event is an input to Transition: a user action or an I/O completion.
type Event interface{ isEvent() }

type FileSelected struct{ File domain.SelectedFile }

type PreviewDecoded struct {
	Generation uint64
	Handle     resource.Handle
}

type PreviewFailed struct {
	Generation uint64
	Err        error
}

type MoodSelected struct{ Mood domain.Mood }

type ConvertRequested struct{}

type ConversionSucceeded struct {
	RequestID uint64
	Handle    resource.Handle
}

type ConversionFailed struct {
	RequestID uint64
	Err       error
}

type DownloadRequested struct{}

type Closed struct{}

func (FileSelected) isEvent()        {}
func (PreviewDecoded) isEvent()      {}
func (PreviewFailed) isEvent()       {}
func (MoodSelected) isEvent()        {}
func (ConvertRequested) isEvent()    {}
func (ConversionSucceeded) isEvent() {}
func (ConversionFailed) isEvent()    {}
func (DownloadRequested) isEvent()   {}
func (Closed) isEvent()              {}

// Effect describes a side effect the runtime must perform after a transition.
type Effect interface{ isEffect() }

type DecodePreview struct {
	Generation uint64
	File       domain.SelectedFile
}

type StartConversion struct {
	RequestID uint64
	File      domain.SelectedFile
	Mood      domain.Mood
}

type Revoke struct{ Handle resource.Handle }

type Notify struct{ Notice Notice }

type Save struct {
	Handle   resource.Handle
	Filename string
}

func (DecodePreview) isEffect()   {}
func (StartConversion) isEffect() {}
func (Revoke) isEffect()          {}
func (Notify) isEffect()          {}
func (Save) isEffect()            {}
