package board

import (
	"errors"
	"testing"

	"projectboard/model"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmailRequired},
		{"   ", ErrEmailRequired},
		{"not-an-email", ErrInvalidEmail},
		{"a@b", ErrInvalidEmail},
		{"a b@c.de", ErrInvalidEmail},
		{"a@b.co", nil},
		{"first.last+tag@sub.example.org", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if err := ValidateEmail(tt.in); !errors.Is(err, tt.want) {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.in, err, tt.want)
			}
		})
	}
}

func TestAddMember(t *testing.T) {
	members := []string{"owner@example.com"}

	out, err := AddMember(members, "a@b.co")
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	count := 0
	for _, m := range out {
		if m == "a@b.co" {
			count++
		}
	}
	if count != 1 || len(out) != 2 {
		t.Errorf("members = %v, want a@b.co exactly once", out)
	}

	again, err := AddMember(out, " A@B.co ")
	if !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("duplicate error = %v, want ErrAlreadyMember", err)
	}
	if len(again) != 2 {
		t.Errorf("duplicate invite changed members: %v", again)
	}

	if _, err := AddMember(members, "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("invalid error = %v", err)
	}
}

func TestCheckAccess(t *testing.T) {
	p := &model.Project{Members: []string{"member@example.com"}}

	if got := CheckAccess(p, "member@example.com"); got != AccessGranted {
		t.Errorf("member: %s", got)
	}
	if got := CheckAccess(p, "Member@Example.com"); got != AccessGranted {
		t.Errorf("case-insensitive member: %s", got)
	}
	if got := CheckAccess(p, "stranger@example.com"); got != AccessDenied {
		t.Errorf("stranger: %s", got)
	}
	if got := CheckAccess(p, ""); got != AccessDenied {
		t.Errorf("anonymous: %s", got)
	}
	if got := CheckAccess(nil, "member@example.com"); got != AccessNotFound {
		t.Errorf("missing project: %s", got)
	}
}
