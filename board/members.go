package board

import (
	"errors"
	"regexp"
	"strings"

	"projectboard/model"
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrInvalidEmail  = errors.New("please enter a valid email address")
	ErrAlreadyMember = errors.New("this email is already a team member")
)

// Deliberately loose: local@domain.tld with no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lower-cases an address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func IsMember(members []string, email string) bool {
	email = NormalizeEmail(email)
	if email == "" {
		return false
	}
	for _, m := range members {
		if NormalizeEmail(m) == email {
			return true
		}
	}
	return false
}

// AddMember validates email and appends it to the member set exactly once.
func AddMember(members []string, email string) ([]string, error) {
	if err := ValidateEmail(email); err != nil {
		return members, err
	}
	if IsMember(members, email) {
		return members, ErrAlreadyMember
	}
	out := make([]string, 0, len(members)+1)
	out = append(out, members...)
	return append(out, NormalizeEmail(email)), nil
}

type Access int

const (
	AccessNotFound Access = iota
	AccessDenied
	AccessGranted
)

func (a Access) String() string {
	switch a {
	case AccessGranted:
		return "granted"
	case AccessDenied:
		return "denied"
	default:
		return "not-found"
	}
}

// CheckAccess decides whether email may open project. A nil project is
// always AccessNotFound.
func CheckAccess(p *model.Project, email string) Access {
	if p == nil {
		return AccessNotFound
	}
	if IsMember(p.Members, email) {
		return AccessGranted
	}
	return AccessDenied
}
