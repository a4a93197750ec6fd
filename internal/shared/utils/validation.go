package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxJSONSize    = 64 * 1024 // request bodies and websocket frames
	MaxLineSize    = 4 * 1024  // one command line
	MaxContentSize = 16 * 1024 // file content written through touch
)

// String length limits
const (
	MaxUsernameLength = 64
	MinUsernameLength = 3
	MaxPasswordLength = 72 // bcrypt ignores anything longer
	MinPasswordLength = 8
	MaxEmailLength    = 255
	MaxIDLength       = 128
	MaxNameLength     = 256
	MaxTagLength      = 32
)

// Regular expressions for validation
var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots (for service.tool format)
	ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	// UsernamePattern allows alphanumeric and underscores
	UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	// EmailPattern is a basic email validation
	EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// TagPattern allows letters, digits, underscores and dashes
	TagPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateSize checks a payload against a byte limit.
func ValidateSize(data []byte, max int) error {
	if len(data) > max {
		return fmt.Errorf("payload size %d bytes exceeds maximum %d bytes", len(data), max)
	}
	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}

// ValidateToolID validates a tool ID field (allows dots for service.tool format)
func ValidateToolID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}

// ValidateUsername validates a username
func ValidateUsername(username string) error {
	if err := ValidateString(username, "username", MinUsernameLength, MaxUsernameLength, true); err != nil {
		return err
	}
	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username contains invalid characters (only alphanumeric and underscores allowed)")
	}
	return nil
}

// ValidatePassword validates a password
func ValidatePassword(password string) error {
	return ValidateString(password, "password", MinPasswordLength, MaxPasswordLength, true)
}

// ValidateEmail validates an email address
func ValidateEmail(email string, required bool) error {
	if err := ValidateString(email, "email", 0, MaxEmailLength, required); err != nil {
		return err
	}
	if email != "" && !EmailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateName validates a name field
func ValidateName(name, fieldName string) error {
	return ValidateString(name, fieldName, 1, MaxNameLength, true)
}

// ValidateTag validates a tag name
func ValidateTag(tag string) error {
	if err := ValidateString(tag, "tag", 1, MaxTagLength, true); err != nil {
		return err
	}
	if !TagPattern.MatchString(tag) {
		return fmt.Errorf("tag contains invalid characters (only alphanumeric, hyphens, and underscores allowed)")
	}
	return nil
}

// ValidateLine validates a submitted command line. Empty lines are valid.
func ValidateLine(line string) error {
	return ValidateString(line, "line", 0, MaxLineSize, false)
}
