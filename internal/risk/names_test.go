package risk

import "testing"

func TestCompareNames(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{
			name: "Exact match",
			a:    "John Smith",
			b:    "John Smith",
			want: true,
		},
		{
			name: "First initial with same surname",
			a:    "John Smith",
			b:    "J Smith",
			want: true,
		},
		{
			name: "Different people",
			a:    "John Smith",
			b:    "Jane Doe",
			want: false,
		},
		{
			name: "Punctuation and case insensitive",
			a:    "J. Smith!",
			b:    "j smith",
			want: true,
		},
		{
			name: "Extra whitespace",
			a:    "  John   Smith ",
			b:    "john smith",
			want: true,
		},
		{
			name: "Same surname different initial",
			a:    "John Smith",
			b:    "Kate Smith",
			want: false,
		},
		{
			name: "Single token never initial-matches",
			a:    "Smith",
			b:    "John Smith",
			want: false,
		},
		{
			name: "Empty name",
			a:    "",
			b:    "John Smith",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareNames(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("CompareNames(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
