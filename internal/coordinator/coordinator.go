// Package coordinator is the single writer of the latest-translation slot and
// the single broadcaster of translation events.
package coordinator

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/transpop/internal/db"
	"horse.fit/transpop/internal/translation"
)

const (
	MessageStoreUnavailable = "翻訳結果を保存できませんでした。"
	MessageLoadFailed       = "最新の翻訳結果を読み込めませんでした。"
	MessageInternal         = "内部エラーが発生しました。"
)

type FailureKind string

const (
	FailureValidation FailureKind = "validation_failed"
	FailureRequest    FailureKind = "request_failed"
	FailureStore      FailureKind = "store_unavailable"
	FailureInternal   FailureKind = "internal_error"
)

type Translator interface {
	Translate(ctx context.Context, text string) (translation.Result, error)
}

type Store interface {
	SaveLatestTranslation(ctx context.Context, record db.LatestTranslationRecord) error
	LoadLatestTranslation(ctx context.Context) (*db.LatestTranslationRecord, error)
}

type Publisher interface {
	Publish(event Event) int
}

// Reply answers exactly one request. Result is nil for a failure, a skipped
// selection, or an empty slot.
type Reply struct {
	OK      bool
	Result  *translation.Result
	Error   string
	Failure FailureKind
	Skipped bool
}

func success(result *translation.Result) Reply {
	return Reply{OK: true, Result: result}
}

func failure(kind FailureKind, message string) Reply {
	return Reply{Failure: kind, Error: message}
}

type Coordinator struct {
	translator Translator
	store      Store
	publisher  Publisher
	logger     zerolog.Logger
}

func New(translator Translator, store Store, publisher Publisher, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		translator: translator,
		store:      store,
		publisher:  publisher,
		logger:     logger.With().Str("component", "coordinator").Logger(),
	}
}

// HandleSelectionTranslate translates a selection. Whitespace-only selections
// are skipped without a reply error or a broadcast.
func (c *Coordinator) HandleSelectionTranslate(ctx context.Context, text string) Reply {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Reply{OK: true, Skipped: true}
	}
	return c.translate(ctx, trimmed, translation.OriginContextMenu)
}

func (c *Coordinator) HandleTranslateRequest(ctx context.Context, text, origin string) Reply {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return failure(FailureValidation, translation.MessageEmptyText)
	}
	parsed, err := translation.ParseOrigin(origin)
	if err != nil {
		c.logger.Warn().Err(err).Msg("unknown origin, recording as manual")
		parsed = translation.OriginManual
	}
	return c.translate(ctx, trimmed, parsed)
}

// HandleGetLatest reads the slot. It never publishes.
func (c *Coordinator) HandleGetLatest(ctx context.Context) Reply {
	record, err := c.store.LoadLatestTranslation(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("load latest translation failed")
		return failure(FailureStore, MessageLoadFailed)
	}
	if record == nil {
		return success(nil)
	}
	result := resultFromRecord(*record)
	return success(&result)
}

func (c *Coordinator) translate(ctx context.Context, text string, origin translation.Origin) Reply {
	result, err := c.translator.Translate(ctx, text)
	if err != nil {
		message := requestFailureMessage(err)
		c.logger.Warn().Err(err).Str("origin", string(origin)).Msg("translation failed")
		c.publish(newErrorEvent(message))
		return failure(FailureRequest, message)
	}
	result = result.WithOrigin(origin)

	if err := c.store.SaveLatestTranslation(ctx, recordFromResult(result)); err != nil {
		c.logger.Error().
			Err(err).
			Str("origin", string(origin)).
			Str("source_text", result.SourceText).
			Str("translated_text", result.TranslatedText).
			Str("detected_source_language", result.DetectedSourceLanguage).
			Time("updated_at", result.UpdatedAt).
			Msg("translation not persisted")
		c.publish(newErrorEvent(MessageStoreUnavailable))
		return failure(FailureStore, MessageStoreUnavailable)
	}

	c.publish(newResultEvent(result))
	return success(&result)
}

func (c *Coordinator) publish(event Event) {
	if c.publisher == nil {
		return
	}
	delivered := c.publisher.Publish(event)
	c.logger.Debug().
		Str("event_id", event.ID).
		Str("kind", string(event.Kind)).
		Int("delivered", delivered).
		Msg("event published")
}

func requestFailureMessage(err error) string {
	var reqErr *translation.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.UserMessage()
	}
	return translation.MessageRequestFailed
}

func recordFromResult(result translation.Result) db.LatestTranslationRecord {
	return db.LatestTranslationRecord{
		SourceText:             result.SourceText,
		TranslatedText:         result.TranslatedText,
		DetectedSourceLanguage: result.DetectedSourceLanguage,
		Origin:                 string(result.Origin),
		TranslatedAt:           result.UpdatedAt,
	}
}

func resultFromRecord(record db.LatestTranslationRecord) translation.Result {
	origin, err := translation.ParseOrigin(record.Origin)
	if err != nil {
		origin = translation.OriginManual
	}
	return translation.Result{
		SourceText:             record.SourceText,
		TranslatedText:         record.TranslatedText,
		DetectedSourceLanguage: record.DetectedSourceLanguage,
		UpdatedAt:              record.TranslatedAt,
		Origin:                 origin,
	}
}
