package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/SanjarHikmatov/unired-task/internal/models"
	"github.com/SanjarHikmatov/unired-task/internal/utils"
	"github.com/shopspring/decimal"
)

// GeneralField collects messages that belong to no single field
const GeneralField = "__all__"

const (
	MsgRequired          = "This field is required"
	MsgCardLength        = "The card number must be 16 digits long"
	MsgCardLuhn          = "The card number is invalid (does not comply with the Luhn algorithm)"
	MsgExpireFormat      = "Expire date is wrong formatted"
	MsgPhoneFormat       = "Phone number is wrong formatted"
	MsgStatus            = "Status be only active/inactive/expired"
	MsgCurrency          = "Currency must be one of 643 (RUB), 840 (USD)"
	MsgAmountPositive    = "Sending amount must be positive"
	MsgBalanceNegative   = "Balance must not be negative"
	MsgBalanceFormat     = "Balance must be a decimal number"
	MsgExtIDExists       = "Ext ID already exists"
	MsgSenderNotFound    = "Sender card not found or expiry mismatch"
	MsgReceiverNotFound  = "Receiver card not found"
	MsgSenderNotActive   = "Sender card is not active"
	MsgBalanceNotEnough  = "Sender balance is not enough"
	MsgOTPFormat         = "OTP must be 6 digits"
	MsgReceivingPositive = "Receiving amount must be positive"
	MsgAmountDecimals    = "Ensure that there are no more than 2 decimal places"
)

var (
	expirePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`),
		regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`),
		regexp.MustCompile(`^(0[1-9]|1[0-2])\.\d{4}$`),
	}
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\+998\d{9}$`),
		regexp.MustCompile(`^\d{2}\s\d{3}\s\d{2}\s\d{2}$`),
		regexp.MustCompile(`^\d{3}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{9}$`),
	}
	otpPattern = regexp.MustCompile(`^\d{6}$`)
)

// Errors maps a field name to its validation messages
type Errors map[string][]string

// Add appends msg to field
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Empty reports whether no rule failed
func (e Errors) Empty() bool {
	return len(e) == 0
}

// CardNumber normalizes raw and checks it is 16 Luhn-valid digits
func CardNumber(raw string) (string, string) {
	digits := utils.NormalizeCardNumber(raw)
	if len(digits) != 16 {
		return "", MsgCardLength
	}
	if !utils.LuhnCheck(digits) {
		return "", MsgCardLuhn
	}
	return digits, ""
}

// Expire accepts MM/YY, YYYY-MM and MM.YYYY only
func Expire(raw string) (string, string) {
	expire := strings.TrimSpace(raw)
	if expire == "" {
		return "", MsgRequired
	}
	if !matchAny(expirePatterns, expire) {
		return "", MsgExpireFormat
	}
	return expire, ""
}

// Phone accepts an empty value or one of the supported phone layouts
func Phone(raw string) (string, string) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return "", ""
	}
	if !matchAny(phonePatterns, phone) {
		return "", MsgPhoneFormat
	}
	return phone, ""
}

// Status parses a card status case-insensitively
func Status(raw string) (models.CardStatus, string) {
	status, ok := models.ParseCardStatus(raw)
	if !ok {
		return "", MsgStatus
	}
	return status, ""
}

// Currency parses a numeric currency code and checks it is allowed
func Currency(raw string, allowed []int) (int, string) {
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, MsgCurrency
	}
	for _, c := range allowed {
		if c == code {
			return code, ""
		}
	}
	return 0, MsgCurrency
}

// Amount requires a strictly positive amount in whole cents
func Amount(amount *decimal.Decimal) (decimal.Decimal, string) {
	if amount == nil || !amount.IsPositive() {
		return decimal.Zero, MsgAmountPositive
	}
	if !hasCents(*amount) {
		return decimal.Zero, MsgAmountDecimals
	}
	return *amount, ""
}

func hasCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(2))
}

// OTP requires exactly six digits
func OTP(raw string) (string, string) {
	otp := strings.TrimSpace(raw)
	if otp == "" {
		return "", MsgRequired
	}
	if !otpPattern.MatchString(otp) {
		return "", MsgOTPFormat
	}
	return otp, ""
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
