package validation

import (
	"net/mail"
	"net/url"
	"strings"
)

// allowedVideoExtensions lists accepted upload file types.
var allowedVideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
}

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// ValidateEmail checks that the value is a plausible email address.
func ValidateEmail(email string) *ValidationError {
	if email == "" {
		return NewValidationError("email", email, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return NewValidationError("email", email, "invalid email address")
	}
	return nil
}

// ValidatePassword checks password requirements for registration.
func ValidatePassword(password string) *ValidationError {
	if password == "" {
		return NewValidationError("password", "", "password is required")
	}
	if len(password) < minPasswordLength {
		return NewValidationError("password", "", "password must be at least 8 characters")
	}
	return nil
}

// VideoExtension extracts and validates the lowercased extension of an
// uploaded filename. Returns the extension (with dot) or a validation error.
func VideoExtension(filename string) (string, *ValidationError) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "", NewValidationError("filename", filename, "filename has no extension")
	}
	ext := strings.ToLower(filename[idx:])
	if !allowedVideoExtensions[ext] {
		return "", NewValidationError("filename", filename, "unsupported file type")
	}
	return ext, nil
}

// ValidateURL checks that the value parses as an absolute URL.
func ValidateURL(raw string) *ValidationError {
	if raw == "" {
		return NewValidationError("url", raw, "url is required")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewValidationError("url", raw, "invalid URL")
	}
	return nil
}
