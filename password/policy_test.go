package password

import (
	"strings"
	"testing"
)

func TestPolicyCheck(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		name     string
		password string
		want     error
	}{
		{name: "strong", password: "Str0ngP@ss", want: nil},
		{name: "three classes", password: "Str0ngPass", want: nil},
		{name: "empty", password: "", want: ErrTooShort},
		{name: "short", password: "Ab1!", want: ErrTooShort},
		{name: "lower only", password: "weakpassword", want: ErrTooSimple},
		{name: "two classes", password: "weakpassword1", want: ErrTooSimple},
		{name: "too long", password: "Aa1!" + strings.Repeat("x", 253), want: ErrTooLong},
		{name: "max bytes", password: "Aa1!" + strings.Repeat("x", 252), want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.Check(tc.password); got != tc.want {
				t.Fatalf("Check(%q) = %v, want %v", tc.password, got, tc.want)
			}
		})
	}
}

func TestPolicyCountsCharactersNotBytes(t *testing.T) {
	p := Policy{MinLength: 4, MinClasses: 1}

	// four runes, seven bytes
	if err := p.Check("ééé1"); err != nil {
		t.Fatalf("expected multi-byte password to pass, got %v", err)
	}
	if err := p.Check("éé"); err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestPolicyZeroValueAcceptsNonEmpty(t *testing.T) {
	var p Policy
	if err := p.Check("x"); err != nil {
		t.Fatalf("zero policy rejected input: %v", err)
	}
	if err := p.Check(""); err != ErrTooShort {
		t.Fatalf("zero policy must still reject empty input, got %v", err)
	}
}
