package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

// LatestTranslationRecord is the persisted latest translation plus its origin.
type LatestTranslationRecord struct {
	SourceText             string
	TranslatedText         string
	DetectedSourceLanguage string
	Origin                 string
	TranslatedAt           time.Time
}

// SaveLatestTranslation overwrites the single latest-translation slot.
func (p *Pool) SaveLatestTranslation(ctx context.Context, record LatestTranslationRecord) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("%w: database pool is not initialized", ErrStoreUnavailable)
	}

	row := LatestTranslation{
		Slot:                   LatestTranslationSlot,
		SourceText:             record.SourceText,
		TranslatedText:         record.TranslatedText,
		DetectedSourceLanguage: record.DetectedSourceLanguage,
		Origin:                 record.Origin,
		TranslatedAt:           record.TranslatedAt.UTC(),
	}

	err := p.gdb.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"source_text",
				"translated_text",
				"detected_source_language",
				"origin",
				"updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: upsert latest translation: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// LoadLatestTranslation returns the current slot value, or nil when nothing was
// ever saved.
func (p *Pool) LoadLatestTranslation(ctx context.Context) (*LatestTranslationRecord, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("%w: database pool is not initialized", ErrStoreUnavailable)
	}

	var rows []LatestTranslation
	err := p.gdb.WithContext(ctx).
		Where("slot = ?", LatestTranslationSlot).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: query latest translation: %w", ErrStoreUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &LatestTranslationRecord{
		SourceText:             row.SourceText,
		TranslatedText:         row.TranslatedText,
		DetectedSourceLanguage: row.DetectedSourceLanguage,
		Origin:                 row.Origin,
		TranslatedAt:           row.TranslatedAt.UTC(),
	}, nil
}
