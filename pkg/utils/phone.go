package utils

import (
	"strings"
	"unicode"

	waTypes "go.mau.fi/whatsmeow/types"
)

// DefaultCountryPrefix is the national prefix of the deployment (Bolivia).
const DefaultCountryPrefix = "591"

// PhoneVariants is a counterpart number in the shapes it may have been
// stored in.
type PhoneVariants struct {
	WithPrefix    string
	WithoutPrefix string
}

// NormalizePhone strips every non-digit and returns the number with and
// without the country prefix. Length and country code are not validated.
func NormalizePhone(raw, prefix string) PhoneVariants {
	digits := DigitsOnly(raw)
	if prefix != "" && strings.HasPrefix(digits, prefix) {
		return PhoneVariants{
			WithPrefix:    digits,
			WithoutPrefix: strings.TrimPrefix(digits, prefix),
		}
	}
	return PhoneVariants{
		WithPrefix:    prefix + digits,
		WithoutPrefix: digits,
	}
}

// Candidates lists the stored forms that identify the same counterpart:
// prefixed, unprefixed and "+"-prefixed.
func (p PhoneVariants) Candidates() []string {
	out := []string{p.WithPrefix}
	if p.WithoutPrefix != p.WithPrefix {
		out = append(out, p.WithoutPrefix)
	}
	return append(out, "+"+p.WithPrefix)
}

// RecipientPhone is the number an outbound message is addressed to. A
// leading "+" marks a full international number and is sent as written;
// anything else gets the country prefix when it lacks it.
func RecipientPhone(raw, prefix string) string {
	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return DigitsOnly(raw)
	}
	return NormalizePhone(raw, prefix).WithPrefix
}

func DigitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneJID renders a stored phone number as a WhatsApp user JID.
func PhoneJID(phone string) string {
	digits := DigitsOnly(phone)
	if digits == "" {
		return ""
	}
	return waTypes.NewJID(digits, waTypes.DefaultUserServer).String()
}
