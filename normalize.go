package booking

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var reasonPattern = regexp.MustCompile(`(?P<message>.+)\s\(status (?P<status>[0-9][0-9][0-9])`)

// customerMessages maps a backend reason or status code to the message shown
// to customers. Keys are matched exactly and case-sensitively.
var customerMessages = map[string]string{
	"invalid username":          "Invalid email address.",
	"invalid username/password": "Incorrect password.",
	"invalid password":          "Incorrect password.",
	"401":                       "Incorrect password.",
	"name already in use":       "Email is already registered.",
	"409":                       "Email is already registered.",
	"password must be between 6 and 128 characters": "Password must be between 6 and 128 characters.",
	"400": "Password must be between 6 and 128 characters.",
}

// ParseAuthenticationError extracts the status code and reason from an error
// message of the form "...: <reason> (status NNN)". Both are empty when the
// last colon separated segment does not have that shape.
func ParseAuthenticationError(err error) (status, message string) {
	if err == nil {
		return "", ""
	}

	parts := strings.Split(err.Error(), ":")
	reason := strings.TrimLeftFunc(parts[len(parts)-1], unicode.IsSpace)
	if reason == "" {
		return "", ""
	}

	match := reasonPattern.FindStringSubmatch(reason)
	if match == nil {
		return "", ""
	}

	status = match[reasonPattern.SubexpIndex("status")]
	message = strings.TrimSpace(match[reasonPattern.SubexpIndex("message")])
	return status, message
}

// NormalizeError converts a backend failure into one of the fixed customer
// facing messages. It returns nil when no message applies.
func NormalizeError(err error) *string {
	if err == nil {
		return nil
	}

	var be *BackendError
	if errors.As(err, &be) && be.Kind != KindUnknown {
		if msg := KindMessage(be.Kind); msg != nil {
			return msg
		}
	}

	status, message := ParseAuthenticationError(err)
	key := message
	if key == "" {
		key = status
	}
	return lookupMessage(key)
}

// KindMessage returns the customer message for an error kind, or nil.
func KindMessage(kind ErrorKind) *string {
	if kind == KindUnknown {
		return nil
	}
	return lookupMessage(string(kind))
}

func lookupMessage(key string) *string {
	msg, ok := customerMessages[key]
	if !ok {
		return nil
	}
	return &msg
}
