package notify

import (
	"net/url"
	"strings"
)

// CountryCode is prefixed to bare 9-digit mobile numbers.
const CountryCode = "51"

// NormalizePhone strips every non-digit and prefixes the country code when
// exactly nine digits remain. It returns "" when no digits are left.
func NormalizePhone(contact string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, contact)
	if len(digits) == 9 {
		return CountryCode + digits
	}
	return digits
}

// WhatsAppLink builds the click-to-chat deep link for a normalized phone.
func WhatsAppLink(phone, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + phone + "?text=" + text
}
