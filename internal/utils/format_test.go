package utils

import "testing"

var expiryCases = []struct {
	raw  string
	want string
}{
	{"12/2024", "12/24"},
	{"2024-12", "12/24"},
	{"12.2024", "12/24"},
	{"12-2024", "12/24"},
	{"202412", "12/24"},
	{"122024", "12/24"},
	{"2024", "01/24"},
	{"12/24", "12/24"},
	{"1224", "12/24"},
	{"0125", "01/25"},
	{"12", "12/--"},
	{"5", "05/--"},
	{"", "-"},
	{"-", "-"},
	{"123", "123"},
	{"12/2024/1", "12/2024/1"},
}

func TestNormalizeExpiry(t *testing.T) {
	for _, tt := range expiryCases {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeExpiry(tt.raw); got != tt.want {
				t.Errorf("NormalizeExpiry(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeExpiryIdempotent(t *testing.T) {
	for _, tt := range expiryCases {
		once := NormalizeExpiry(tt.raw)
		if twice := NormalizeExpiry(once); twice != once {
			t.Errorf("NormalizeExpiry not idempotent for %q: %q then %q", tt.raw, once, twice)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"998991234567", "+998 99 123 45 67"},
		{"+998 99 123 45 67", "+998 99 123 45 67"},
		{"+998991234567", "+998 99 123 45 67"},
		{"991234567", "+998 99 123 45 67"},
		{"99 123 45 67", "+998 99 123 45 67"},
		{"", "-"},
		{"(empty)", "-"},
		{"123-45-67", "123-45-67"},
		{"+7 999 123 45 67", "+7 999 123 45 67"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizePhone(tt.raw); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
