package slug

import "testing"

func TestMake(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Red Shoe", "red-shoe"},
		{"already slug", "red-shoe", "red-shoe"},
		{"punctuation stripped", "Quality! Product? (New)", "quality-product-new"},
		{"whitespace runs collapse", "Blue\t  Suede   Shoes", "blue-suede-shoes"},
		{"hyphen runs collapse", "a---b -- c", "a-b-c"},
		{"leading trailing trimmed", "  --Fancy Item--  ", "fancy-item"},
		{"underscores stripped", "snake_case_name", "snakecasename"},
		{"digits kept", "iPhone 15 Pro", "iphone-15-pro"},
		{"empty", "", ""},
		{"only symbols", "$%&!", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Make(tc.in); got != tc.want {
				t.Errorf("Make(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCandidate(t *testing.T) {
	if got := Candidate("red-shoe", 0); got != "red-shoe" {
		t.Errorf("candidate 0 should be the base, got %q", got)
	}
	if got := Candidate("red-shoe", 1); got != "red-shoe-1" {
		t.Errorf("expected red-shoe-1, got %q", got)
	}
	if got := Candidate("red-shoe", 12); got != "red-shoe-12" {
		t.Errorf("expected red-shoe-12, got %q", got)
	}
}
