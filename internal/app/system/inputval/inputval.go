// Package inputval holds small validators for user-submitted form values.
package inputval

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsValidEmail reports whether s is a bare address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidHTTPURL reports whether s is an absolute http or https URL with a host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsOptionalHTTPURL is IsValidHTTPURL that also accepts an empty value.
func IsOptionalHTTPURL(s string) bool {
	return strings.TrimSpace(s) == "" || IsValidHTTPURL(s)
}

// IsValidObjectID reports whether s is a 24-character hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// FieldError is one failed rule on one struct field.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// Result collects the failures from Validate in field order.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the string fields of the struct v against their
// `validate` tags. Rules: required, max=N, email, httpurl, optionalurl,
// objectid, oneof=a b c. The `label` tag names the field in messages.
// Only the first failing rule per field is reported.
func Validate(v any) *Result {
	res := &Result{}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return res
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("validate")
		if tag == "" || f.Type.Kind() != reflect.String {
			continue
		}
		label := f.Tag.Get("label")
		if label == "" {
			label = f.Name
		}
		val := strings.TrimSpace(rv.Field(i).String())
		for _, rule := range strings.Split(tag, ",") {
			name, arg, _ := strings.Cut(rule, "=")
			if msg, ok := check(name, arg, label, val); !ok {
				res.Errors = append(res.Errors, FieldError{Field: f.Name, Rule: name, Message: msg})
				break
			}
		}
	}
	return res
}

func check(rule, arg, label, val string) (string, bool) {
	switch rule {
	case "required":
		return label + " is required.", val != ""
	case "max":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return "", true
		}
		return fmt.Sprintf("%s must be at most %d characters.", label, n), utf8.RuneCountInString(val) <= n
	case "email":
		return "A valid " + strings.ToLower(label) + " is required.", val == "" || IsValidEmail(val)
	case "httpurl":
		return label + " must be an http or https URL.", val == "" || IsValidHTTPURL(val)
	case "optionalurl":
		return label + " must be an http or https URL.", IsOptionalHTTPURL(val)
	case "objectid":
		return label + " is not a valid id.", val == "" || IsValidObjectID(val)
	case "oneof":
		for _, opt := range strings.Fields(arg) {
			if val == opt {
				return "", true
			}
		}
		return label + " has an unsupported value.", val == ""
	}
	return "", true
}
