package translation

import (
	"sort"
	"strings"

	"horse.fit/transpop/internal/language"
)

// AutoDetectedLabel is shown when the provider could not detect the source language.
const AutoDetectedLabel = "自動判別"

type languageLabel struct {
	english string
	chinese string
}

var translationLanguageLabels = map[string]languageLabel{
	"ar": {english: "Arabic", chinese: "阿拉伯语"},
	"de": {english: "German", chinese: "德语"},
	"en": {english: "English", chinese: "英语"},
	"es": {english: "Spanish", chinese: "西班牙语"},
	"fr": {english: "French", chinese: "法语"},
	"id": {english: "Indonesian", chinese: "印度尼西亚语"},
	"it": {english: "Italian", chinese: "意大利语"},
	"ja": {english: "Japanese", chinese: "日语"},
	"ko": {english: "Korean", chinese: "韩语"},
	"pl": {english: "Polish", chinese: "波兰语"},
	"pt": {english: "Portuguese", chinese: "葡萄牙语"},
	"ru": {english: "Russian", chinese: "俄语"},
	"th": {english: "Thai", chinese: "泰语"},
	"tr": {english: "Turkish", chinese: "土耳其语"},
	"vi": {english: "Vietnamese", chinese: "越南语"},
	"zh": {english: "Chinese", chinese: "中文"},
}

func SupportedTranslationLanguageCodes() []string {
	codes := make([]string, 0, len(translationLanguageLabels))
	for code := range translationLanguageLabels {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// FormatLanguage renders a detected source language for display: the auto
// sentinel becomes AutoDetectedLabel, anything else its upper-cased code.
func FormatLanguage(code string) string {
	if language.IsAuto(code) {
		return AutoDetectedLabel
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// LanguageName returns the English name of a language code, or "" when unknown.
func LanguageName(code string) string {
	labels, ok := translationLanguageLabels[language.NormalizeCode(code)]
	if !ok {
		return ""
	}
	return labels.english
}
