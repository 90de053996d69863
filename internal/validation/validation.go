// Package validation checks request fields against static rule tables and
// reports failures as a map of field name to messages.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Form holds submitted field values by name.
type Form map[string]string

// Errors maps a field name to its failure messages, in rule order.
type Errors map[string][]string

// Rule is a single check on a field value. A failing rule with Halt set stops
// the remaining rules for that field.
type Rule struct {
	Check   func(value string, form Form) bool
	Message string
	Halt    bool
}

// WithMessage returns a copy of r reporting msg on failure.
func (r Rule) WithMessage(msg string) Rule {
	r.Message = msg
	return r
}

// Field pairs a field name with its rules.
type Field struct {
	Name  string
	Rules []Rule
}

// Schema is an ordered rule table.
type Schema []Field

// Validate runs every rule against form and returns nil when all pass.
func (s Schema) Validate(form Form) Errors {
	var errs Errors
	for _, field := range s {
		value := form[field.Name]
		for _, rule := range field.Rules {
			if rule.Check(value, form) {
				continue
			}
			if errs == nil {
				errs = Errors{}
			}
			errs[field.Name] = append(errs[field.Name], rule.Message)
			if rule.Halt {
				break
			}
		}
	}
	return errs
}

// Required fails on empty or whitespace-only values.
func Required() Rule {
	return Rule{
		Check:   func(v string, _ Form) bool { return strings.TrimSpace(v) != "" },
		Message: "This field is required.",
		Halt:    true,
	}
}

// Length bounds the value's length in characters.
func Length(min, max int) Rule {
	return Rule{
		Check: func(v string, _ Form) bool {
			n := utf8.RuneCountInString(v)
			return n >= min && n <= max
		},
		Message: fmt.Sprintf("Field must be between %d and %d characters long.", min, max),
	}
}

// MaxLength caps the value's length in characters.
func MaxLength(max int) Rule {
	return Rule{
		Check:   func(v string, _ Form) bool { return utf8.RuneCountInString(v) <= max },
		Message: fmt.Sprintf("Field cannot be longer than %d characters.", max),
	}
}

// MaxBytes caps the value's encoded size.
func MaxBytes(max int) Rule {
	return Rule{
		Check:   func(v string, _ Form) bool { return len(v) <= max },
		Message: fmt.Sprintf("Field cannot be longer than %d bytes.", max),
	}
}

// Email accepts a bare address such as "a@x.com".
func Email() Rule {
	return Rule{Check: func(v string, _ Form) bool { return IsEmail(v) }, Message: "Invalid email address."}
}

// EqualTo requires the value to match another field.
func EqualTo(other string) Rule {
	return Rule{
		Check:   func(v string, form Form) bool { return v == form[other] },
		Message: fmt.Sprintf("Field must be equal to %s.", other),
	}
}

// IsEmail reports whether v is a single bare address with a dotted domain.
func IsEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Name != "" || addr.Address != v {
		return false
	}
	at := strings.LastIndexByte(v, '@')
	domain := v[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
