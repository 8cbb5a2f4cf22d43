// Package popup is the transient translation view: it restores the latest
// result on open, submits text, and follows broadcasts from the coordinator.
package popup

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"horse.fit/transpop/internal/coordinator"
	"horse.fit/transpop/internal/translation"
)

const (
	MessageEmptyInput       = "テキストを入力してください。"
	MessageTranslating      = "翻訳中..."
	MessageCompleted        = "翻訳が完了しました。"
	MessageFailed           = "翻訳に失敗しました。"
	MessageSelectionUpdated = "選択したテキストを翻訳しました。"
)

type StatusKind string

const (
	StatusInfo     StatusKind = "info"
	StatusProgress StatusKind = "progress"
	StatusSuccess  StatusKind = "success"
	StatusError    StatusKind = "error"
)

type Status struct {
	Message string
	Kind    StatusKind
}

// State is what a view shows. A nil Result hides the result panel.
type State struct {
	Input          string
	Status         Status
	Result         *translation.Result
	SubmitDisabled bool
}

func (s State) clone() State {
	if s.Result != nil {
		result := *s.Result
		s.Result = &result
	}
	return s
}

// Backend is how a view reaches the coordinator.
type Backend interface {
	GetLatest(ctx context.Context) (*translation.Result, error)
	Translate(ctx context.Context, text string, origin translation.Origin) (*translation.Result, error)
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription is a live feed of broadcast events. Events is closed once the
// feed ends.
type Subscription interface {
	Events() <-chan coordinator.Event
	Close()
}

// ReplyError is a structured failure reply. Message is shown to the user.
type ReplyError struct {
	Failure coordinator.FailureKind
	Message string
}

func (e *ReplyError) Error() string {
	if e.Message == "" {
		return string(e.Failure)
	}
	return e.Message
}

func replyError(reply coordinator.Reply) *ReplyError {
	return &ReplyError{Failure: reply.Failure, Message: reply.Error}
}

type Option func(*View)

// WithRenderer registers fn to receive every state change. It runs while the
// view is locked and must not call back into the view.
func WithRenderer(fn func(State)) Option {
	return func(v *View) {
		v.render = fn
	}
}

type View struct {
	backend Backend
	logger  zerolog.Logger
	render  func(State)

	mu     sync.Mutex
	state  State
	sub    Subscription
	closed bool
	pumpWG sync.WaitGroup
}

func NewView(backend Backend, logger zerolog.Logger, opts ...Option) *View {
	v := &View{
		backend: backend,
		logger:  logger.With().Str("component", "popup").Logger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// State returns a snapshot of the current view state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.clone()
}

// Activate subscribes to broadcasts and then restores the stored result. A
// failed load leaves the view empty.
func (v *View) Activate(ctx context.Context) {
	sub, err := v.backend.Subscribe(ctx)
	if err != nil {
		v.logger.Warn().Err(err).Msg("subscribe to translation events failed")
	} else {
		v.mu.Lock()
		closed := v.closed
		if !closed {
			v.sub = sub
			v.pumpWG.Add(1)
		}
		v.mu.Unlock()

		if closed {
			sub.Close()
			return
		}
		go v.pump(sub)
	}

	result, err := v.backend.GetLatest(ctx)
	if err != nil {
		v.logger.Error().Err(err).Msg("failed to load latest translation")
		return
	}
	if result == nil {
		return
	}

	v.update(func(s *State) {
		s.Result = result
		s.Input = result.SourceText
	})
}

// Submit translates text as a popup request. The submit control is disabled
// for the duration of the call and re-enabled whatever the outcome.
func (v *View) Submit(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		v.update(func(s *State) {
			s.Input = text
			s.Status = Status{Message: MessageEmptyInput, Kind: StatusError}
		})
		return
	}

	v.update(func(s *State) {
		s.Input = text
		s.SubmitDisabled = true
		s.Status = Status{Message: MessageTranslating, Kind: StatusProgress}
	})

	result, err := v.backend.Translate(ctx, trimmed, translation.OriginPopup)
	if err != nil {
		v.logger.Warn().Err(err).Msg("translation failed")
		message := failureMessage(err)
		v.update(func(s *State) {
			s.SubmitDisabled = false
			s.Status = Status{Message: message, Kind: StatusError}
		})
		return
	}

	v.update(func(s *State) {
		s.SubmitDisabled = false
		if result != nil {
			s.Result = result
		}
		s.Status = Status{Message: MessageCompleted, Kind: StatusSuccess}
	})
}

// HandleEvent applies one broadcast. Events arriving after Close are ignored.
func (v *View) HandleEvent(event coordinator.Event) {
	switch event.Kind {
	case coordinator.EventResult:
		if event.Payload == nil {
			return
		}
		payload := *event.Payload
		v.update(func(s *State) {
			s.Result = &payload
			if payload.Origin == translation.OriginContextMenu {
				s.Input = payload.SourceText
				s.Status = Status{Message: MessageSelectionUpdated, Kind: StatusSuccess}
			}
		})
	case coordinator.EventError:
		message := event.Message
		if message == "" {
			message = MessageFailed
		}
		v.update(func(s *State) {
			s.Status = Status{Message: message, Kind: StatusError}
		})
	}
}

// Close unsubscribes. Calling it again is a no-op.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	sub := v.sub
	v.sub = nil
	v.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	v.pumpWG.Wait()
}

func (v *View) pump(sub Subscription) {
	defer v.pumpWG.Done()
	for event := range sub.Events() {
		v.HandleEvent(event)
	}
}

func (v *View) update(apply func(*State)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	apply(&v.state)
	if v.render != nil {
		v.render(v.state.clone())
	}
}

func failureMessage(err error) string {
	var replyErr *ReplyError
	if errors.As(err, &replyErr) && strings.TrimSpace(replyErr.Message) != "" {
		return replyErr.Message
	}
	return MessageFailed
}
