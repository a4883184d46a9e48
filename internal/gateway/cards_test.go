package gateway

import "testing"

func TestDetectCardBrand(t *testing.T) {
	tests := []struct {
		name       string
		cardNumber string
		want       string
	}{
		{
			name:       "Visa",
			cardNumber: "4111111111111111",
			want:       "visa",
		},
		{
			name:       "Mastercard",
			cardNumber: "5500000000000004",
			want:       "mastercard",
		},
		{
			name:       "Amex",
			cardNumber: "378282246310005",
			want:       "amex",
		},
		{
			name:       "Discover 6011",
			cardNumber: "6011111111111117",
			want:       "discover",
		},
		{
			name:       "Discover 65",
			cardNumber: "6500000000000002",
			want:       "discover",
		},
		{
			name:       "Unknown prefix",
			cardNumber: "1234567890123456",
			want:       "other",
		},
		{
			name:       "Mastercard range excludes 50",
			cardNumber: "5000000000000009",
			want:       "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectCardBrand(tt.cardNumber)
			if got != tt.want {
				t.Errorf("DetectCardBrand() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateLuhnChecksum(t *testing.T) {
	tests := []struct {
		name       string
		cardNumber string
		want       bool
	}{
		{
			name:       "Valid Visa",
			cardNumber: "4242424242424242",
			want:       true,
		},
		{
			name:       "Valid Mastercard",
			cardNumber: "5555555555554444",
			want:       true,
		},
		{
			name:       "Valid Amex",
			cardNumber: "378282246310005",
			want:       true,
		},
		{
			name:       "Invalid card",
			cardNumber: "1234567890123456",
			want:       false,
		},
		{
			name:       "Empty string",
			cardNumber: "",
			want:       false,
		},
		{
			name:       "Non-digit characters",
			cardNumber: "4242-4242",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateLuhnChecksum(tt.cardNumber)
			if got != tt.want {
				t.Errorf("ValidateLuhnChecksum() = %v, want %v", got, tt.want)
			}
		})
	}
}
