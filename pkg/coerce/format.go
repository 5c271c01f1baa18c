package coerce

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches its parsed tags.
var validate = validator.New()

// Email accepts a string of the form local-part@domain.
// The domain must contain at least one dot and consist of valid host labels.
func Email(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch(TypeEmail, v)
	}

	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return "", &Error{Expected: TypeEmail, Received: TypeString, Reason: "an email address must have an @-sign"}
	}
	if reason := checkDomain(s[at+1:]); reason != "" {
		return "", &Error{Expected: TypeEmail, Received: TypeString, Reason: reason}
	}
	if err := validate.Var(s, "email"); err != nil {
		return "", &Error{Expected: TypeEmail, Received: TypeString, Reason: "the address is not syntactically valid"}
	}
	return s, nil
}

// checkDomain returns a non-empty reason when domain is not a dotted host name.
func checkDomain(domain string) string {
	if !strings.Contains(domain, ".") {
		return "the domain name " + domain + " is not valid. It should have a period"
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return "the domain name " + domain + " contains an empty label"
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return "the domain name " + domain + " has a label starting or ending with a hyphen"
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-') {
				return "the domain name " + domain + " contains invalid characters"
			}
		}
	}
	return ""
}

// URL accepts an absolute URL with a scheme and a host. A bare domain is rejected.
func URL(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch(TypeURL, v)
	}
	if err := validate.Var(s, "url"); err != nil {
		return "", &Error{Expected: TypeURL, Received: TypeString, Reason: "relative URL without a base"}
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", &Error{Expected: TypeURL, Received: TypeString, Reason: err.Error()}
	}
	if u.Scheme == "" {
		return "", &Error{Expected: TypeURL, Received: TypeString, Reason: "relative URL without a base"}
	}
	if u.Host == "" {
		return "", &Error{Expected: TypeURL, Received: TypeString, Reason: "empty host"}
	}
	return s, nil
}
