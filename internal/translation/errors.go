package translation

import (
	"errors"
	"fmt"
)

// User-facing messages. The popup is Japanese-first, matching the default target.
const (
	MessageRequestFailed = "翻訳リクエストに失敗しました"
	MessageEmptyText     = "翻訳するテキストを入力してください。"
)

var (
	// ErrRequestFailed matches every provider transport or status failure.
	ErrRequestFailed = errors.New("translation request failed")
	// ErrEmptyText is returned when the text is blank after trimming.
	ErrEmptyText = errors.New("text is required")
)

// RequestError is a failed provider call. Message is safe to show to a user;
// Err keeps the underlying cause for logs.
type RequestError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s status %d: %v", ErrRequestFailed, e.Provider, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s status %d", ErrRequestFailed, e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrRequestFailed, e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: %s", ErrRequestFailed, e.Provider)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// UserMessage returns the localized message for the failure.
func (e *RequestError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return MessageRequestFailed
}

func requestFailed(provider string, statusCode int, cause error) *RequestError {
	return &RequestError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    MessageRequestFailed,
		Err:        cause,
	}
}
