package flow

import (
	"net/mail"
	"strings"

	"leadfunnel/internal/model"
)

// ValidateContact checks the contact step fields and returns the trimmed contact
func ValidateContact(name, email string) (model.Contact, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return model.Contact{}, invalid("name", "name is required")
	}
	if email == "" {
		return model.Contact{}, invalid("email", "email is required")
	}
	if !wellFormedEmail(email) {
		return model.Contact{}, invalid("email", "email is invalid")
	}
	return model.Contact{Name: name, Email: email}, nil
}

// wellFormedEmail accepts a bare addr-spec with a dotted domain
func wellFormedEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	return at > 0 && strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}
