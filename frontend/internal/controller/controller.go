// Package controller implements the upload/convert/preview/download flow of one browser session.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/itchan-dev/emojiprofile/frontend/internal/preview"
	"github.com/itchan-dev/emojiprofile/frontend/internal/resource"
	"github.com/itchan-dev/emojiprofile/shared/domain"
	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
	"github.com/itchan-dev/emojiprofile/shared/logger"
	"github.com/itchan-dev/emojiprofile/shared/middleware/metrics"
)

// resultMimeType is what the backend answers with on success.
const resultMimeType = "image/png"

type Converter interface {
	Convert(ctx context.Context, file domain.SelectedFile, mood domain.Mood) ([]byte, error)
}

type Decoder interface {
	Decode(ctx context.Context, file domain.SelectedFile) (preview.Preview, error)
}

type Resources interface {
	Create(owner, mimeType string, data []byte) resource.Handle
	Open(owner string, id resource.ID) (*resource.Resource, error)
	Revoke(h resource.Handle) bool
}

// Download is a finished conversion ready to be saved by the browser.
type Download struct {
	Filename string
	MimeType string
	Data     []byte
}

// Controller runs Transition for one session and performs the effects it asks for.
// Preview decodes run in the background; conversions run on the caller's goroutine,
// at most one at a time.
type Controller struct {
	owner     string
	converter Converter
	decoder   Decoder
	resources Resources
	log       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	notices []Notice
}

func New(owner string, converter Converter, decoder Decoder, resources Resources) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		owner:     owner,
		converter: converter,
		decoder:   decoder,
		resources: resources,
		log:       logger.Component("controller").With("session", shortID(owner)),
		ctx:       ctx,
		cancel:    cancel,
		state:     NewState(),
	}
}

// dispatch applies e, queues notices and releases revoked resources before anyone
// can observe the new state. The remaining effects are returned to the caller.
func (c *Controller) dispatch(e Event) []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, effects := Transition(c.state, e)
	c.state = next

	for _, eff := range effects {
		switch eff := eff.(type) {
		case Revoke:
			c.resources.Revoke(eff.Handle)
		case Notify:
			c.notices = append(c.notices, eff.Notice)
		}
	}
	return effects
}

// SelectFile stores file as the current selection and starts decoding its preview.
// The returned channel is closed once that decode has finished, whatever its outcome.
func (c *Controller) SelectFile(file domain.SelectedFile) <-chan struct{} {
	done := make(chan struct{})
	started := false
	for _, eff := range c.dispatch(FileSelected{File: file}) {
		if d, ok := eff.(DecodePreview); ok {
			c.log.Info("file selected", "file", file.Name, "mime", file.MimeType, "size", file.Size(), "digest", file.ShortDigest(), "generation", d.Generation)
			c.startDecode(d, done)
			started = true
		}
	}
	if !started {
		close(done)
	}
	return done
}

func (c *Controller) startDecode(d DecodePreview, done chan struct{}) {
	go func() {
		defer close(done)

		p, err := c.decoder.Decode(c.ctx, d.File)
		if err != nil {
			c.log.Warn("preview decode failed", "file", d.File.Name, "digest", d.File.ShortDigest(), "generation", d.Generation, "error", err)
			c.dispatch(PreviewFailed{Generation: d.Generation, Err: err})
			return
		}
		h := c.resources.Create(c.owner, p.MimeType, p.Data)
		c.dispatch(PreviewDecoded{Generation: d.Generation, Handle: h})
	}()
}

// SelectMood changes the mood used by the next conversion. Unknown moods are rejected
// and leave the current choice in place.
func (c *Controller) SelectMood(m domain.Mood) error {
	for _, eff := range c.dispatch(MoodSelected{Mood: m}) {
		if n, ok := eff.(Notify); ok {
			return fmt.Errorf("%w: %q", n.Notice.Kind, string(m))
		}
	}
	return nil
}

// Convert submits the current file and mood to the backend and blocks until it answers.
// It returns ErrMissingInput without a file, ErrBusy while another call is in flight
// and ErrConversionFailed for any transport or status failure.
func (c *Controller) Convert(ctx context.Context) error {
	var start *StartConversion
	for _, eff := range c.dispatch(ConvertRequested{}) {
		switch eff := eff.(type) {
		case StartConversion:
			start = &eff
		case Notify:
			return eff.Notice.Kind
		}
	}
	if start == nil {
		return internal_errors.ErrMissingInput
	}

	log := c.log.With("request_id", start.RequestID, "mood", start.Mood.String(), "file", start.File.Name)
	log.Info("conversion started")

	began := time.Now()
	data, err := c.converter.Convert(ctx, start.File, start.Mood)
	elapsed := time.Since(began)
	metrics.ObserveConversion(start.Mood.String(), err, elapsed)

	if err != nil {
		log.Error("conversion failed", "elapsed", elapsed, "error", err)
		c.dispatch(ConversionFailed{RequestID: start.RequestID, Err: err})
		if errors.Is(err, internal_errors.ErrConversionFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", internal_errors.ErrConversionFailed, err)
	}

	h := c.resources.Create(c.owner, resultMimeType, data)
	c.dispatch(ConversionSucceeded{RequestID: start.RequestID, Handle: h})
	log.Info("conversion finished", "elapsed", elapsed, "bytes", len(data))
	return nil
}

// Download returns the current result under its download filename, or ErrNoResult.
func (c *Controller) Download() (Download, error) {
	for _, eff := range c.dispatch(DownloadRequested{}) {
		save, ok := eff.(Save)
		if !ok {
			continue
		}
		res, err := c.resources.Open(c.owner, save.Handle.ID)
		if err != nil {
			return Download{}, fmt.Errorf("%w: %v", internal_errors.ErrNoResult, err)
		}
		return Download{Filename: save.Filename, MimeType: res.MimeType, Data: res.Data}, nil
	}
	return Download{}, internal_errors.ErrNoResult
}

// Resource serves one of this session's live resources.
func (c *Controller) Resource(id resource.ID) (*resource.Resource, error) {
	return c.resources.Open(c.owner, id)
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TakeNotices drains the notices queued since the last call.
func (c *Controller) TakeNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	notices := c.notices
	c.notices = nil
	return notices
}

// Close releases all resources. Decodes still running are discarded when they finish.
func (c *Controller) Close() {
	c.cancel()
	c.dispatch(Closed{})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
