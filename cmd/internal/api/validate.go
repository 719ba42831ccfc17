package api

import (
	"net/mail"
	"unicode"
)

const (
	usernameMin = 4
	usernameMax = 32
	passwordMin = 6
)

func validUsername(s string) string {
	if s == "" {
		return "username is required"
	}
	if len(s) < usernameMin || len(s) > usernameMax {
		return "username must be between 4 and 32 characters"
	}
	return ""
}

func validEmail(s string) string {
	if s == "" {
		return "email is required"
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "email is not valid"
	}
	return ""
}

func validPassword(s string) string {
	if s == "" {
		return "password is required"
	}
	if len(s) < passwordMin {
		return "password must be at least 6 characters"
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return "password must have at least one lowercase, one uppercase and one digit"
	}
	return ""
}

func validateRegister(req registerRequest) map[string]string {
	fields := map[string]string{}
	if msg := validUsername(req.Username); msg != "" {
		fields["username"] = msg
	}
	if msg := validEmail(req.Email); msg != "" {
		fields["email"] = msg
	}
	if msg := validPassword(req.Password); msg != "" {
		fields["password"] = msg
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
