package utils

import (
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

func IsValidPhone(phone string) bool {
	// Remove all non-digit characters except +
	cleaned := regexp.MustCompile(`[^\d+]`).ReplaceAllString(phone, "")

	// Basic E.164 format validation
	return phoneRegex.MatchString(cleaned)
}

func FormatPhone(phone, countryCode string) string {
	// Remove all non-digit characters
	cleaned := regexp.MustCompile(`[^\d]`).ReplaceAllString(phone, "")

	if !strings.HasPrefix(cleaned, strings.TrimPrefix(countryCode, "+")) {
		cleaned = strings.TrimPrefix(countryCode, "+") + cleaned
	}

	return "+" + cleaned
}

func NormalizePhone(phone string) string {
	// Remove all spaces, dashes, parentheses, etc.
	normalized := regexp.MustCompile(`[^\d+]`).ReplaceAllString(phone, "")

	// Ensure it starts with +
	if !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}

	return normalized
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}

	// Show last 4 digits
	masked := strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
	return masked
}

func ValidateOTP(otp string) bool {
	if len(otp) != DeliveryOTPLength {
		return false
	}

	// Check if all characters are digits
	for _, char := range otp {
		if char < '0' || char > '9' {
			return false
		}
	}

	return true
}
