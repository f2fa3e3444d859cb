// Package wizard implements the three-step retouch wizard: upload a photo,
// retouch light and shadow, then harmonize its colors with a palette taken
// from a reference image.
//
// Remote actions run in two phases. StartX validates the step and claims the
// action's in-flight slot under the session lock, returning a Job. The Job
// performs the remote call without the lock and applies its result only if
// the session epoch is unchanged and the step still accepts it; otherwise it
// returns ErrStale and the result is dropped. Reset, SelectImage and Close
// advance the epoch.
package wizard

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/fpang/retouch-studio/internal/gemini"
	"github.com/fpang/retouch-studio/internal/i18n"
	"github.com/fpang/retouch-studio/internal/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// Remote is the set of model operations the wizard drives.
// *gemini.Client satisfies it.
type Remote interface {
	Enhance(ctx context.Context, img gemini.Image, params gemini.RetouchParameters) (string, error)
	ExtractPalette(ctx context.Context, img gemini.Image, count int) (gemini.ColorPalette, error)
	TransferColors(ctx context.Context, img gemini.Image, colors []gemini.ExtractedColor) (string, error)
	Suggest(ctx context.Context, img gemini.Image, guidance string) (gemini.Suggestion, error)
}

// Job runs a started action to completion.
type Job func(ctx context.Context) error

// Options configures a Session.
type Options struct {
	MaxLiveHandles      int
	PreviewMaxDimension int
	Locale              language.Tag
}

type ticket struct {
	kind  ActionKind
	epoch uint64
}

// Session is one user's wizard run. It is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	remote  Remote
	opts    Options
	handles *HandleTable
	locale  language.Tag

	step        Step
	image       *WorkingImage
	reference   *ReferenceImage
	params      gemini.RetouchParameters
	suggestion  *gemini.Suggestion
	palette     []gemini.ExtractedColor
	paletteSize int
	selection   Selection
	errText     string

	epoch    uint64
	inFlight map[ActionKind]uint64
	closed   bool
}

// New creates a session in StepUpload with default parameters.
func New(remote Remote, opts Options) *Session {
	if opts.Locale == language.Und {
		opts.Locale = i18n.Supported[0]
	}
	return &Session{
		remote:      remote,
		opts:        opts,
		handles:     NewHandleTable(opts.MaxLiveHandles),
		locale:      opts.Locale,
		step:        StepUpload,
		params:      gemini.DefaultParameters(),
		paletteSize: gemini.DefaultPaletteSize,
		inFlight:    make(map[ActionKind]uint64),
	}
}

// SetLocale changes the language of stored error messages.
func (s *Session) SetLocale(tag language.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = tag
}

// Handles exposes the preview handle table.
func (s *Session) Handles() *HandleTable {
	return s.handles
}

// Step returns the current step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// check verifies the session is open and in want.
func (s *Session) check(want Step) error {
	if s.closed {
		return ErrClosed
	}
	if s.step != want {
		return ErrWrongStep
	}
	return nil
}

// fail records err as the visible error message and returns it.
func (s *Session) fail(err error) error {
	s.errText = Describe(err, s.locale)
	return err
}

// begin claims the in-flight slot for kind.
func (s *Session) begin(kind ActionKind) (ticket, error) {
	if _, busy := s.inFlight[kind]; busy {
		return ticket{}, ErrBusy
	}
	t := ticket{kind: kind, epoch: s.epoch}
	s.inFlight[kind] = t.epoch
	s.errText = ""
	log.Debug().Str("action", kind.String()).Uint64("epoch", t.epoch).Msg("Action started")
	return t, nil
}

// finish releases t's slot and applies the outcome if t is still current.
func (s *Session) finish(t ticket, err error, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.inFlight[t.kind]; ok && cur == t.epoch {
		delete(s.inFlight, t.kind)
	}

	if s.closed || t.epoch != s.epoch || s.step != t.kind.resultStep() {
		log.Info().
			Str("action", t.kind.String()).
			Uint64("ticket_epoch", t.epoch).
			Uint64("session_epoch", s.epoch).
			Str("step", s.step.String()).
			Bool("failed", err != nil).
			Msg("Discarding stale action result")
		return ErrStale
	}

	if err != nil {
		log.Warn().Err(err).Str("action", t.kind.String()).Msg("Action failed")
		return s.fail(err)
	}
	apply()
	log.Debug().Str("action", t.kind.String()).Str("step", s.step.String()).Msg("Action applied")
	return nil
}

// advance invalidates every outstanding ticket.
func (s *Session) advance() {
	s.epoch++
	clear(s.inFlight)
}

// clearDerived drops everything derived from the working image.
func (s *Session) clearDerived() {
	if s.reference != nil {
		s.reference.Close()
		s.reference = nil
	}
	s.palette = nil
	s.selection.Clear()
	s.suggestion = nil
	s.errText = ""
}

// decode runs the step check and pre under the lock, then validates and
// decodes u without it so polling is never blocked by a large image. The
// returned epoch must still be current when the result is installed.
func (s *Session) decode(want Step, u imaging.Upload, pre func() error) (*decoded, uint64, error) {
	s.mu.Lock()
	err := s.check(want)
	if err == nil && pre != nil {
		err = pre()
	}
	epoch := s.epoch
	s.mu.Unlock()
	if err != nil {
		return nil, 0, err
	}

	d, err := decodeUpload(u, s.opts.PreviewMaxDimension)
	if err != nil {
		log.Warn().Err(err).Str("filename", u.Filename).Int64("size", u.Size()).Msg("Upload rejected")
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.closed && s.epoch == epoch {
			s.fail(err)
		}
		return nil, 0, err
	}
	return d, epoch, nil
}

// current re-checks the session after an unlocked decode.
func (s *Session) current(want Step, epoch uint64) error {
	if err := s.check(want); err != nil {
		return err
	}
	if s.epoch != epoch {
		return ErrStale
	}
	return nil
}

// SelectImage validates u and makes it the working image, discarding any
// previous state and moving to StepRetouch. A rejected upload leaves the
// step unchanged.
func (s *Session) SelectImage(u imaging.Upload) error {
	d, epoch, err := s.decode(StepUpload, u, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.current(StepUpload, epoch); err != nil {
		return err
	}

	if s.image != nil {
		s.image.Close()
		s.image = nil
	}
	s.clearDerived()
	p, err := d.register(s.handles)
	if err != nil {
		return s.fail(err)
	}
	s.advance()
	s.image = &WorkingImage{previewed: p}
	s.step = StepRetouch

	log.Info().
		Str("filename", u.Filename).
		Str("mime", p.image.MIMEType).
		Int64("size", u.Size()).
		Int("width", p.info.Width).
		Int("height", p.info.Height).
		Msg("Working image selected")
	return nil
}

// UpdateParameters replaces the retouch parameters. Style labels are
// normalized to their canonical names.
func (s *Session) UpdateParameters(p gemini.RetouchParameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(StepRetouch); err != nil {
		return err
	}

	style, err := gemini.ParseLightingStyle(string(p.Style))
	if err != nil {
		return err
	}
	p.Style = style
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	return nil
}

// StartRetouch claims the enhance slot. The job stores the enhanced result
// and moves to StepHarmonize on success.
func (s *Session) StartRetouch() (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(StepRetouch); err != nil {
		return nil, err
	}
	if s.image == nil {
		return nil, s.fail(ErrNoImage)
	}
	t, err := s.begin(ActionEnhance)
	if err != nil {
		return nil, err
	}

	s.image.Enhanced = ""
	s.image.Final = ""
	img := s.image.image
	params := s.params

	return func(ctx context.Context) error {
		uri, err := s.remote.Enhance(ctx, img, params)
		return s.finish(t, err, func() {
			s.image.Enhanced = uri
			s.step = StepHarmonize
		})
	}, nil
}

// RunRetouch starts and runs the enhance action.
func (s *Session) RunRetouch(ctx context.Context) error {
	return run(ctx, s.StartRetouch)
}

// StartSuggest claims the suggest slot. The job overwrites dodge and burn.
func (s *Session) StartSuggest() (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(StepRetouch); err != nil {
		return nil, err
	}
	if s.image == nil {
		return nil, s.fail(ErrNoImage)
	}
	t, err := s.begin(ActionSuggest)
	if err != nil {
		return nil, err
	}

	img := s.image.image
	guidance := s.params.Guidance

	return func(ctx context.Context) error {
		sug, err := s.remote.Suggest(ctx, img, guidance)
		return s.finish(t, err, func() {
			s.params.Dodge = sug.Dodge
			s.params.Burn = sug.Burn
			s.suggestion = &sug
		})
	}, nil
}

// RunSuggest starts and runs the suggest action.
func (s *Session) RunSuggest(ctx context.Context) error {
	return run(ctx, s.StartSuggest)
}

// SelectReferenceImage validates u and makes it the palette source,
// releasing any previous reference.
func (s *Session) SelectReferenceImage(u imaging.Upload) error {
	d, epoch, err := s.decode(StepHarmonize, u, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.current(StepHarmonize, epoch); err != nil {
		return err
	}
	return s.installReference(d)
}

// installReference replaces the reference with d. The old preview handle is
// released before the new one is acquired, so a swap never needs a spare
// slot.
func (s *Session) installReference(d *decoded) error {
	if s.reference != nil {
		s.reference.Close()
		s.reference = nil
	}
	p, err := d.register(s.handles)
	if err != nil {
		return s.fail(err)
	}
	s.reference = &ReferenceImage{previewed: p}
	s.errText = ""
	log.Info().Str("mime", p.image.MIMEType).Int("size", len(p.image.Data)).Msg("Reference image selected")
	return nil
}

// extractReady reports why an extraction of count colors cannot start.
func (s *Session) extractReady(count int) error {
	if count < gemini.MinPaletteSize || count > gemini.MaxPaletteSize {
		return s.fail(&gemini.ParameterError{Field: "count", Value: strconv.Itoa(count)})
	}
	if _, busy := s.inFlight[ActionExtract]; busy {
		return ErrBusy
	}
	return nil
}

// StartExtract claims the extract slot for count colors. When u is non-nil
// it first becomes the reference image. Starting clears the palette and
// the selection; the job replaces the palette on success.
func (s *Session) StartExtract(u *imaging.Upload, count int) (Job, error) {
	var d *decoded
	var epoch uint64
	if u != nil {
		var err error
		d, epoch, err = s.decode(StepHarmonize, *u, func() error { return s.extractReady(count) })
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(StepHarmonize); err != nil {
		return nil, err
	}
	if err := s.extractReady(count); err != nil {
		return nil, err
	}
	if d != nil {
		if s.epoch != epoch {
			return nil, ErrStale
		}
		if err := s.installReference(d); err != nil {
			return nil, err
		}
	}
	if s.reference == nil {
		return nil, s.fail(ErrNoReference)
	}
	t, err := s.begin(ActionExtract)
	if err != nil {
		return nil, err
	}

	s.palette = nil
	s.selection.Clear()
	s.paletteSize = count
	img := s.reference.image

	return func(ctx context.Context) error {
		palette, err := s.remote.ExtractPalette(ctx, img, count)
		return s.finish(t, err, func() {
			s.palette = palette.Colors
		})
	}, nil
}

// RunExtract starts and runs the extract action.
func (s *Session) RunExtract(ctx context.Context, u *imaging.Upload, count int) error {
	return run(ctx, func() (Job, error) { return s.StartExtract(u, count) })
}

// ToggleColor adds the palette color with hex to the selection, or removes
// it if already selected. It reports whether the color is selected after.
func (s *Session) ToggleColor(hex string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(StepHarmonize); err != nil {
		return false, err
	}
	hex = strings.TrimSpace(hex)
	for _, c := range s.palette {
		if strings.EqualFold(c.Hex, hex) {
			return s.selection.Toggle(c), nil
		}
	}
	if s.selection.Contains(hex) {
		return s.selection.Toggle(gemini.ExtractedColor{Hex: hex}), nil
	}
	return false, ErrColorNotInPalette
}

// StartTransfer claims the transfer slot. The job stores the final result
// and moves to StepDone on success.
func (s *Session) StartTransfer() (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(StepHarmonize); err != nil {
		return nil, err
	}
	if s.image == nil || s.image.Enhanced == "" {
		return nil, s.fail(ErrNoEnhancedResult)
	}
	if s.selection.Len() == 0 {
		return nil, s.fail(ErrEmptySelection)
	}
	mimeType, data, err := imaging.ParseDataURI(s.image.Enhanced)
	if err != nil {
		log.Error().Err(err).Msg("Enhanced result is not a valid data URI")
		return nil, s.fail(ErrUnparsableResult)
	}
	t, err := s.begin(ActionTransfer)
	if err != nil {
		return nil, err
	}

	img := gemini.Image{Data: data, MIMEType: mimeType}
	colors := s.selection.Colors()

	return func(ctx context.Context) error {
		uri, err := s.remote.TransferColors(ctx, img, colors)
		return s.finish(t, err, func() {
			s.image.Final = uri
			s.step = StepDone
		})
	}, nil
}

// RunTransfer starts and runs the transfer action.
func (s *Session) RunTransfer(ctx context.Context) error {
	return run(ctx, s.StartTransfer)
}

// Reset returns to StepUpload, releases every image and restores default
// parameters. Results of in-flight actions are discarded when they arrive.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.advance()
	s.clearDerived()
	if s.image != nil {
		s.image.Close()
		s.image = nil
	}
	s.params = gemini.DefaultParameters()
	s.paletteSize = gemini.DefaultPaletteSize
	s.step = StepUpload
	log.Debug().Uint64("epoch", s.epoch).Msg("Wizard reset")
}

// DismissError clears the visible error message.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errText = ""
}

// Close releases every handle and makes further operations fail with
// ErrClosed. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.advance()
	s.clearDerived()
	if s.image != nil {
		s.image.Close()
		s.image = nil
	}
	if n := s.handles.ReleaseAll(); n > 0 {
		log.Warn().Int("count", n).Msg("Session closed with unowned preview handles")
	}
	s.closed = true
}

// Snapshot is an immutable view of a session.
type Snapshot struct {
	Step        Step                     `json:"step"`
	StepLabel   string                   `json:"stepLabel"`
	Parameters  gemini.RetouchParameters `json:"parameters"`
	Suggestion  *gemini.Suggestion       `json:"suggestion,omitempty"`
	Image       *ImageView               `json:"image,omitempty"`
	Reference   *ImageView               `json:"reference,omitempty"`
	Palette     []gemini.ExtractedColor  `json:"palette"`
	PaletteSize int                      `json:"paletteSize"`
	Selection   []gemini.ExtractedColor  `json:"selection"`
	Busy        []string                 `json:"busy"`
	Error       string                   `json:"error,omitempty"`
	Epoch       uint64                   `json:"epoch"`
	Closed      bool                     `json:"closed,omitempty"`
}

// IsBusy reports whether kind is in flight in the snapshot.
func (snap Snapshot) IsBusy(kind ActionKind) bool {
	for _, b := range snap.Busy {
		if b == kind.String() {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	busy := make([]string, 0, len(s.inFlight))
	for _, k := range actionKinds {
		if _, ok := s.inFlight[k]; ok {
			busy = append(busy, k.String())
		}
	}

	palette := make([]gemini.ExtractedColor, len(s.palette))
	copy(palette, s.palette)
	selection := s.selection.Colors()
	if selection == nil {
		selection = []gemini.ExtractedColor{}
	}

	snap := Snapshot{
		Step:        s.step,
		StepLabel:   StepLabel(s.step, s.locale),
		Parameters:  s.params,
		Image:       s.image.view(),
		Reference:   s.reference.view(),
		Palette:     palette,
		PaletteSize: s.paletteSize,
		Selection:   selection,
		Busy:        busy,
		Error:       s.errText,
		Epoch:       s.epoch,
		Closed:      s.closed,
	}
	if s.suggestion != nil {
		sug := *s.suggestion
		snap.Suggestion = &sug
	}
	return snap
}

// IsStale reports whether err means a result was discarded.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

func run(ctx context.Context, start func() (Job, error)) error {
	job, err := start()
	if err != nil {
		return err
	}
	return job(ctx)
}

// Original returns the working image as uploaded.
func (s *Session) Original() (gemini.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return gemini.Image{}, false
	}
	return s.image.image, true
}
