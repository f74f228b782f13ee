package domain

import (
	"net/mail"
	"strings"
)

// validateEmailFormat reports whether email is a bare RFC 5322 address
// without a display name and with a dotted domain part.
func validateEmailFormat(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}

	at := strings.LastIndex(email, "@")
	domainPart := email[at+1:]
	dot := strings.Index(domainPart, ".")
	return dot > 0 && dot < len(domainPart)-1
}
