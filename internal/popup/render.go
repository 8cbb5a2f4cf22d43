package popup

import (
	"fmt"
	"io"
	"strings"

	"horse.fit/transpop/internal/translation"
)

const timeLayout = "2006/01/02 15:04:05"

// Render writes s as plain text: status line, the input, then the result
// panel when there is a result. Times are shown in local time.
func Render(w io.Writer, s State) error {
	var b strings.Builder

	if s.Status.Message != "" {
		fmt.Fprintf(&b, "[%s] %s\n", s.Status.Kind, s.Status.Message)
	}
	submit := "翻訳"
	if s.SubmitDisabled {
		submit = "翻訳 (処理中)"
	}
	fmt.Fprintf(&b, "入力: %s\n", s.Input)
	fmt.Fprintf(&b, "ボタン: %s\n", submit)

	if s.Result != nil {
		b.WriteString("----\n")
		writeResult(&b, *s.Result)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderResult writes only the result panel.
func RenderResult(w io.Writer, result translation.Result) error {
	var b strings.Builder
	writeResult(&b, result)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeResult(b *strings.Builder, result translation.Result) {
	detected := translation.FormatLanguage(result.DetectedSourceLanguage)
	if name := translation.LanguageName(result.DetectedSourceLanguage); name != "" {
		detected += " (" + name + ")"
	}
	fmt.Fprintf(b, "検出言語: %s\n", detected)
	fmt.Fprintf(b, "原文: %s\n", result.SourceText)
	fmt.Fprintf(b, "訳文: %s\n", result.TranslatedText)
	if !result.UpdatedAt.IsZero() {
		fmt.Fprintf(b, "更新: %s\n", result.UpdatedAt.Local().Format(timeLayout))
	}
}
