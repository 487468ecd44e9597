package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Input limits shared by the insertion form, the server and the CLI.
const (
	MaxTitleLength       = 256
	MaxDescriptionLength = 4096
	MinPromptLength      = 4
	MaxPromptLength      = 8192
	MaxGraphNameLength   = 64
)

// ValidateTitle validates a node title.
//
// The title must be non-empty after trimming surrounding whitespace, at most
// [MaxTitleLength] characters long and free of control characters.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return Invalid("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return Invalid("title", "title too long (max %d characters)", MaxTitleLength)
	}
	if hasControl(title) {
		return Invalid("title", "title contains invalid control characters")
	}
	return nil
}

// ValidateDescription validates a free-form node description.
func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return Invalid("description", "description too long (max %d characters)", MaxDescriptionLength)
	}
	return nil
}

// ValidatePrompt validates a diagram description sent to the generator.
// Descriptions shorter than [MinPromptLength] characters after trimming are rejected.
func ValidatePrompt(desc string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(desc))
	if n < MinPromptLength {
		return Invalid("description", "text must be at least %d characters", MinPromptLength)
	}
	if n > MaxPromptLength {
		return Invalid("description", "text too long (max %d characters)", MaxPromptLength)
	}
	return nil
}

// ValidateGraphName validates a stored graph document name.
// Names are used as file names and database keys, so they are restricted to
// letters, digits, dash and underscore.
func ValidateGraphName(name string) error {
	if name == "" {
		return Invalid("name", "graph name cannot be empty")
	}
	if len(name) > MaxGraphNameLength {
		return Invalid("name", "graph name too long (max %d characters)", MaxGraphNameLength)
	}
	for _, r := range name {
		if r != '-' && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return Invalid("name", "graph name contains invalid character %q", r)
		}
	}
	return nil
}

func hasControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
