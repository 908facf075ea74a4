package validation

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// StaticService is a deterministic local scorer used for development and
// handler tests. It applies a simplified version of the server's password
// rules to the password1/password2 field pair.
type StaticService struct {
	// MinLength is the minimum accepted password length. Defaults to 8.
	MinLength int
}

// NewStaticService returns a scorer with default rules.
func NewStaticService() *StaticService {
	return &StaticService{MinLength: 8}
}

// CheckForm scores the snapshot's password fields.
func (s *StaticService) CheckForm(_ context.Context, _ string, form Snapshot) (*Response, error) {
	password := form["password1"]
	confirm := form["password2"]

	resp := &Response{
		Match:    matchStatus(password, confirm),
		Strength: scorePassword(password),
	}

	minLen := s.MinLength
	if minLen <= 0 {
		minLen = 8
	}

	switch {
	case password == "":
		resp.Message = "Please type your new password"
	case len(password) < minLen:
		resp.Message = fmt.Sprintf("Password is too short (minimum %d characters)", minLen)
	case resp.Match == MatchNo:
		resp.Message = "Passwords do not match"
	case resp.Match == MatchEmpty:
		resp.Message = "Please confirm your new password"
	default:
		resp.Passed = true
		resp.Message = "New password accepted, please click change password"
	}
	return resp, nil
}

func matchStatus(password, confirm string) MatchStatus {
	if password == "" || confirm == "" {
		return MatchEmpty
	}
	if password == confirm {
		return MatchOK
	}
	return MatchNo
}

// scorePassword maps a password onto a 0-100 strength score from length and
// character class variety.
func scorePassword(password string) int {
	if password == "" {
		return 0
	}

	classes := 0
	var hasLower, hasUpper, hasDigit, hasOther bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasOther = true
		}
	}
	for _, has := range []bool{hasLower, hasUpper, hasDigit, hasOther} {
		if has {
			classes++
		}
	}

	score := len(password)*5 + classes*15
	if strings.EqualFold(password, "password") {
		score = 5
	}
	if score > 100 {
		score = 100
	}
	return score
}
