package controller

import (
	"github.com/itchan-dev/emojiprofile/frontend/internal/resource"
	"github.com/itchan-dev/emojiprofile/shared/domain"
	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
)

const (
	msgMissingInput     = "Please select an image first!"
	msgBusy             = "A conversion is already in progress."
	msgConversionFailed = "Failed to convert image. Please try again."
	msgDecodeFailure    = "Could not read the selected image. Please choose another file."
	msgInvalidMood      = "Please pick one of the available moods."
)

// Transition is the pure state machine of the conversion flow. It never performs I/O;
// everything that must happen as a consequence is returned as effects.
func Transition(s State, e Event) (State, []Effect) {
	if s.Closed {
		return transitionClosed(s, e)
	}

	switch e := e.(type) {
	case FileSelected:
		effects := revoke(nil, s.Preview, s.Result)
		file := e.File
		s.File = &file
		s.Generation++
		s.Preview = resource.Handle{}
		s.PreviewFailed = false
		s.Result = resource.Handle{}
		s.ResultMood = ""
		// an in-flight request keeps Loading set; its response is dropped on arrival
		return s, append(effects, DecodePreview{Generation: s.Generation, File: file})

	case PreviewDecoded:
		if e.Generation != s.Generation {
			return s, revoke(nil, e.Handle)
		}
		effects := revoke(nil, s.Preview)
		s.Preview = e.Handle
		s.PreviewFailed = false
		return s, effects

	case PreviewFailed:
		if e.Generation != s.Generation {
			return s, nil
		}
		s.PreviewFailed = true
		return s, []Effect{notify(internal_errors.ErrDecodeFailure, LevelError, msgDecodeFailure)}

	case MoodSelected:
		if !e.Mood.Valid() {
			return s, []Effect{notify(internal_errors.ErrInvalidMood, LevelWarning, msgInvalidMood)}
		}
		s.Mood = e.Mood
		return s, nil

	case ConvertRequested:
		if s.File == nil {
			return s, []Effect{notify(internal_errors.ErrMissingInput, LevelWarning, msgMissingInput)}
		}
		if s.Loading {
			return s, []Effect{notify(internal_errors.ErrBusy, LevelWarning, msgBusy)}
		}
		s.Loading = true
		s.RequestID++
		s.inFlightGeneration = s.Generation
		s.inFlightMood = s.Mood
		return s, []Effect{StartConversion{RequestID: s.RequestID, File: *s.File, Mood: s.Mood}}

	case ConversionSucceeded:
		if !s.Loading || e.RequestID != s.RequestID {
			return s, revoke(nil, e.Handle)
		}
		s.Loading = false
		if s.inFlightGeneration != s.Generation {
			// the file changed while converting, the result belongs to the old one
			return s, revoke(nil, e.Handle)
		}
		effects := revoke(nil, s.Result)
		s.Result = e.Handle
		s.ResultMood = s.inFlightMood
		return s, effects

	case ConversionFailed:
		if !s.Loading || e.RequestID != s.RequestID {
			return s, nil
		}
		s.Loading = false
		if s.inFlightGeneration != s.Generation {
			// the failure concerns a file that is no longer selected
			return s, nil
		}
		return s, []Effect{notify(internal_errors.ErrConversionFailed, LevelError, msgConversionFailed)}

	case DownloadRequested:
		if s.Result.IsZero() {
			return s, nil
		}
		return s, []Effect{Save{Handle: s.Result, Filename: domain.ResultFilename(s.Mood)}}

	case Closed:
		effects := revoke(nil, s.Preview, s.Result)
		s.Preview = resource.Handle{}
		s.Result = resource.Handle{}
		s.Loading = false
		s.Closed = true
		return s, effects
	}

	return s, nil
}

// transitionClosed releases anything that arrives after Close and ignores the rest.
func transitionClosed(s State, e Event) (State, []Effect) {
	switch e := e.(type) {
	case PreviewDecoded:
		return s, revoke(nil, e.Handle)
	case ConversionSucceeded:
		return s, revoke(nil, e.Handle)
	}
	return s, nil
}

func revoke(effects []Effect, handles ...resource.Handle) []Effect {
	for _, h := range handles {
		if !h.IsZero() {
			effects = append(effects, Revoke{Handle: h})
		}
	}
	return effects
}

func notify(kind error, level NoticeLevel, message string) Notify {
	return Notify{Notice: Notice{Kind: kind, Level: level, Message: message}}
}
