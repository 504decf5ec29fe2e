package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall     = errors.New("amount below minimum allowed")
	ErrTooManyDecimals    = errors.New("amount has more than two decimal places")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrPasswordTooWeak    = errors.New("password does not meet requirements")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidDescription = errors.New("invalid description")
)

// Validation constants
const (
	MinUserNameLength     = 3
	MaxNameLength         = 255
	MaxDescriptionLength  = 500
	MaxExpenseAmount      = "1000000000" // 1 billion
	MinExpenseAmount      = "0.01"
	MinPasswordLength     = 6
	MaxPasswordLength     = 128
	DefaultCurrency       = "USD"
	amountDecimalExponent = -2
)

// Valid currency codes (ISO 4217) used for display.
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "LKR": true, "TRY": true, "HKD": true,
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateGroupName validates a group name.
func ValidateGroupName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return ErrEmptyGroupName
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateUserName validates the display name given at registration.
func ValidateUserName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinUserNameLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidName, MinUserNameLength)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateDescription validates an expense description.
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)

	if description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidDescription)
	}

	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}

	return nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates an expense or settlement amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinExpenseAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinExpenseAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxExpenseAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxExpenseAmount)
	}

	if !amount.Equal(amount.Truncate(-amountDecimalExponent)) {
		return ErrTooManyDecimals
	}

	return nil
}

// ParseAmount parses user input into an amount and validates it.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, s)
	}

	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	return nil
}

// ValidatePasswordConfirmation checks a new password and its confirmation.
func ValidatePasswordConfirmation(password, confirmation string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	if password != confirmation {
		return ErrPasswordMismatch
	}

	return nil
}
