package domain

import (
	"fmt"
	"regexp"
)

var (
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	categoryRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,31}$`)
)

// ValidateCurrency checks if a currency code is ISO 4217.
func ValidateCurrency(currency string) error {
	if !currencyRegex.MatchString(currency) {
		return fmt.Errorf("invalid currency code: %s", currency)
	}
	return nil
}

// ValidateCategory checks a product category tag (slots, live, sportsbook...).
func ValidateCategory(category string) error {
	if !categoryRegex.MatchString(category) {
		return fmt.Errorf("invalid category: %q", category)
	}
	return nil
}

// ValidatePositiveAmount checks that an amount is positive (in cents).
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	return nil
}

// ValidateNonZeroAmount checks that a signed amount moves money at all.
func ValidateNonZeroAmount(amount int64) error {
	if amount == 0 {
		return fmt.Errorf("amount must be non-zero")
	}
	return nil
}

// ValidateReference checks a provider-supplied transaction identifier. Derived
// suffixes are reserved for internally generated references.
func ValidateReference(ref string) error {
	if ref == "" {
		return fmt.Errorf("external reference is required")
	}
	if len(ref) > 128 {
		return fmt.Errorf("external reference too long: %d chars", len(ref))
	}
	if IsDerivedReference(ref) {
		return fmt.Errorf("external reference %q uses a reserved suffix", ref)
	}
	return nil
}
