package db

import "time"

// LatestTranslationSlot names the single row holding the current translation.
const LatestTranslationSlot = "latestTranslation"

// LatestTranslation maps latest_translations. The table only ever holds the
// LatestTranslationSlot row; each save overwrites it wholesale.
type LatestTranslation struct {
	Slot                   string    `gorm:"column:slot;type:text;primaryKey"`
	SourceText             string    `gorm:"column:source_text;type:text;not null"`
	TranslatedText         string    `gorm:"column:translated_text;type:text;not null;default:''"`
	DetectedSourceLanguage string    `gorm:"column:detected_source_language;type:text;not null;default:'auto'"`
	Origin                 string    `gorm:"column:origin;type:text;not null;default:'manual'"`
	TranslatedAt           time.Time `gorm:"column:updated_at;not null"`
}

func (LatestTranslation) TableName() string { return "latest_translations" }

func autoMigrateModels() []any {
	return []any{
		&LatestTranslation{},
	}
}
