package translation

import (
	"fmt"
	"strings"
	"time"
)

// Origin tags which UI action produced a translation. It is provenance only and
// never part of a result's identity.
type Origin string

const (
	OriginManual      Origin = "manual"
	OriginPopup       Origin = "popup"
	OriginContextMenu Origin = "contextMenu"
)

// ParseOrigin maps a raw origin tag to an Origin. Blank input means manual.
func ParseOrigin(raw string) (Origin, error) {
	switch trimmed := strings.TrimSpace(raw); trimmed {
	case "":
		return OriginManual, nil
	case string(OriginManual), string(OriginPopup), string(OriginContextMenu):
		return Origin(trimmed), nil
	default:
		return "", fmt.Errorf("unknown translation origin %q", raw)
	}
}

// Result is the latest translation as persisted and broadcast.
type Result struct {
	SourceText             string    `json:"sourceText"`
	TranslatedText         string    `json:"translatedText"`
	DetectedSourceLanguage string    `json:"detectedSourceLanguage"`
	UpdatedAt              time.Time `json:"updatedAt"`
	Origin                 Origin    `json:"origin,omitempty"`
}

// WithOrigin returns a copy of r tagged with origin.
func (r Result) WithOrigin(origin Origin) Result {
	r.Origin = origin
	return r
}
