package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrInvalidLength indicates phone number length is not 10 digits
	ErrInvalidLength = errors.New("phone number must be exactly 10 digits")

	// ErrInvalidPrefix indicates phone number does not start with a Sri Lankan area or mobile code
	ErrInvalidPrefix = errors.New("phone number must start with a valid Sri Lankan area or mobile code")
)

// mobilePrefixes are the Sri Lankan mobile operator prefixes
var mobilePrefixes = map[string]bool{
	"070": true, "071": true, "072": true, "074": true, "075": true,
	"076": true, "077": true, "078": true,
}

// landlinePrefixes are the geographic area codes an agency office number may use
var landlinePrefixes = map[string]bool{
	"011": true, "021": true, "023": true, "024": true, "025": true, "026": true, "027": true,
	"031": true, "032": true, "033": true, "034": true, "035": true, "036": true, "037": true, "038": true,
	"041": true, "045": true, "047": true, "051": true, "052": true, "054": true, "055": true, "057": true,
	"063": true, "065": true, "066": true, "067": true, "081": true, "091": true,
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Sanitize strips separators and rewrites a +94 country code to the trunk prefix
func Sanitize(phone string) string {
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "", ".", "").Replace(phone)
	if strings.HasPrefix(phone, "94") && len(phone) == 11 {
		phone = "0" + phone[2:]
	}
	return phone
}

// ValidatePhone validates a Sri Lankan mobile or landline number.
// Accepts 0771234567, 077 123 4567, +94 77 123 4567 and similar.
// Returns the digits-only form.
func ValidatePhone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := Sanitize(phone)
	if !digitsOnly.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}
	if len(sanitized) != 10 {
		return "", ErrInvalidLength
	}

	prefix := sanitized[:3]
	if !mobilePrefixes[prefix] && !landlinePrefixes[prefix] {
		return "", ErrInvalidPrefix
	}
	return sanitized, nil
}

// IsMobile reports whether a valid number is on a mobile prefix
func IsMobile(phone string) bool {
	sanitized, err := ValidatePhone(phone)
	return err == nil && mobilePrefixes[sanitized[:3]]
}

// FormatPhone formats a phone number for display: 0XX XXX XXXX
func FormatPhone(phone string) (string, error) {
	sanitized, err := ValidatePhone(phone)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", sanitized[0:3], sanitized[3:6], sanitized[6:10]), nil
}
