package gateway

import "regexp"

var cardBrandPatterns = []struct {
	brand   string
	pattern *regexp.Regexp
}{
	{"visa", regexp.MustCompile(`^4`)},
	{"mastercard", regexp.MustCompile(`^5[1-5]`)},
	{"amex", regexp.MustCompile(`^3[47]`)},
	{"discover", regexp.MustCompile(`^6(?:011|5)`)},
}

// DetectCardBrand identifies the card brand from its BIN prefix.
func DetectCardBrand(cardNumber string) string {
	for _, p := range cardBrandPatterns {
		if p.pattern.MatchString(cardNumber) {
			return p.brand
		}
	}
	return "other"
}

// ValidateLuhnChecksum validates a card number using Luhn algorithm
func ValidateLuhnChecksum(cardNumber string) bool {
	if cardNumber == "" {
		return false
	}

	var sum int
	parity := len(cardNumber) % 2

	for i, digit := range cardNumber {
		if digit < '0' || digit > '9' {
			return false
		}
		d := int(digit - '0')
		if i%2 == parity {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}

	return sum%10 == 0
}

// LastFour returns the final four digits of a card number.
func LastFour(cardNumber string) string {
	if len(cardNumber) < 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
