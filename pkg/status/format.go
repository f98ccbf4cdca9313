package status

import (
	"fmt"
)

// Formatter defines how operation outcomes and progress should be formatted
type Formatter interface {
	// FormatOperation formats an operation outcome message
	FormatOperation(name, queue, outcome string) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFormatter provides a default implementation of Formatter
type DefaultFormatter struct{}

// NewDefaultFormatter creates a new DefaultFormatter
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// FormatOperation formats an operation outcome message with emojis
func (f *DefaultFormatter) FormatOperation(name, queue, outcome string) string {
	switch outcome {
	case "completed":
		return fmt.Sprintf("✨ Completed %s (%s)", name, queue)
	case "canceled":
		return fmt.Sprintf("⏭️  Canceled %s (%s)", name, queue)
	case "failed":
		return fmt.Sprintf("❌ Failed %s (%s)", name, queue)
	default:
		return fmt.Sprintf("⏳ Pending %s (%s)", name, queue)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatError formats an error message with emoji
func (f *DefaultFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
