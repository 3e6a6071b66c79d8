package validator

import (
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minEmailLength    = 3
	maxEmailLength    = 100
	minPasswordLength = 8
	maxPasswordLength = 50
	minNameLength     = 2
	maxNameLength     = 50
	maxTitleLength    = 255
	maxContentLength  = 20000
	maxFileNameLen    = 255
	maxContentTypeLen = 100
	maxFileSizeGB     = 5
	maxFileSizeBytes  = int64(maxFileSizeGB * 1024 * 1024 * 1024)
	minPartNumber     = 1
	maxPartNumber     = 10000
	asciiControlStart = 32
	asciiDelete       = 127

	errEmailEmptyFmt           = "email cannot be empty"
	errEmailLengthFmt          = "email must be between %d and %d characters"
	errEmailInvalidFmt         = "invalid email format"
	errPasswordMinLengthFmt    = "password must be at least %d characters"
	errPasswordMaxLengthFmt    = "password must not exceed %d characters"
	errNameLengthFmt           = "name must be between %d and %d characters"
	errNameControlCharsFmt     = "name cannot contain control characters"
	errTitleEmptyFmt           = "title cannot be empty"
	errTitleMaxLengthFmt       = "title must not exceed %d characters"
	errContentEmptyFmt         = "content cannot be empty"
	errContentMaxLengthFmt     = "content must not exceed %d characters"
	errFileNameEmptyFmt        = "file name cannot be empty"
	errFileNameMaxLengthFmt    = "file name must not exceed %d characters"
	errFileNamePathSepFmt      = "file name cannot contain path separators"
	errFileNameControlCharsFmt = "file name cannot contain control characters"
	errContentTypeMaxLengthFmt = "content type must not exceed %d characters"
	errContentTypeInvalidFmt   = "invalid content type"
	errFileSizeNonPositiveFmt  = "file size must be greater than zero"
	errFileSizeMaxFmt          = "file size exceeds maximum of %dGB"
	errPartNumberRangeFmt      = "part number must be between %d and %d"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func Email(email string) error {
	if email == "" {
		return fmt.Errorf(errEmailEmptyFmt)
	}

	if len(email) < minEmailLength || len(email) > maxEmailLength {
		return fmt.Errorf(errEmailLengthFmt, minEmailLength, maxEmailLength)
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf(errEmailInvalidFmt)
	}

	return nil
}

func Password(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf(errPasswordMinLengthFmt, minPasswordLength)
	}

	if len(password) > maxPasswordLength {
		return fmt.Errorf(errPasswordMaxLengthFmt, maxPasswordLength)
	}

	return nil
}

func Name(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > maxNameLength {
		return fmt.Errorf(errNameLengthFmt, minNameLength, maxNameLength)
	}

	if hasControlChars(name) {
		return fmt.Errorf(errNameControlCharsFmt)
	}

	return nil
}

func PostTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf(errTitleEmptyFmt)
	}

	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf(errTitleMaxLengthFmt, maxTitleLength)
	}

	return nil
}

func PostContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf(errContentEmptyFmt)
	}

	if utf8.RuneCountInString(content) > maxContentLength {
		return fmt.Errorf(errContentMaxLengthFmt, maxContentLength)
	}

	return nil
}

func FileName(name string) error {
	if name == "" {
		return fmt.Errorf(errFileNameEmptyFmt)
	}

	if len(name) > maxFileNameLen {
		return fmt.Errorf(errFileNameMaxLengthFmt, maxFileNameLen)
	}

	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf(errFileNamePathSepFmt)
	}

	if hasControlChars(name) {
		return fmt.Errorf(errFileNameControlCharsFmt)
	}

	return nil
}

func FileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf(errFileSizeNonPositiveFmt)
	}

	if size > maxFileSizeBytes {
		return fmt.Errorf(errFileSizeMaxFmt, maxFileSizeGB)
	}

	return nil
}

func ContentType(contentType string) error {
	if contentType == "" {
		return nil
	}

	if len(contentType) > maxContentTypeLen {
		return fmt.Errorf(errContentTypeMaxLengthFmt, maxContentTypeLen)
	}

	if _, _, err := mime.ParseMediaType(contentType); err != nil {
		return fmt.Errorf(errContentTypeInvalidFmt)
	}

	return nil
}

// PartNumber validates a multipart upload part number against the S3 limits.
func PartNumber(n int) error {
	if n < minPartNumber || n > maxPartNumber {
		return fmt.Errorf(errPartNumberRangeFmt, minPartNumber, maxPartNumber)
	}
	return nil
}

func hasControlChars(s string) bool {
	for _, char := range s {
		if char < asciiControlStart || char == asciiDelete {
			return true
		}
	}
	return false
}
