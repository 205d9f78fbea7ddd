package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"ada@example.com",
		"ada.lovelace+groups@mail.example.org",
		"x@y.io",
		"dev@localhost",
		"  padded@example.com  ",
	}
	invalid := []string{
		"",
		"   ",
		"ada",
		"ada@",
		"@example.com",
		".ada@example.com",
		"ada.@example.com",
		"ada..l@example.com",
		"ada@.example.com",
		"ada@example..com",
		"Ada Lovelace <ada@example.com>",
		"ada @example.com",
		"ada@exa mple.com",
	}

	for _, s := range valid {
		if !IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = true, want false", s)
		}
	}
}
