package form

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownField is returned when an operation names a field that is not
	// registered.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrEmptyName is returned when registering a field without a name.
	ErrEmptyName = errors.New("form: field name is required")
)

// RuleFailure reports one failing rule for one field. Failures with an empty
// Field are form-level messages (for example injected server errors).
type RuleFailure struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

func (f RuleFailure) Error() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// ErrorList is an ordered set of failures; order follows field registration.
type ErrorList []RuleFailure

// Error summarizes the first few failures.
func (l ErrorList) Error() string {
	if len(l) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	limit := len(l)
	if limit > maxShown {
		limit = maxShown
	}
	for i := 0; i < limit; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(l[i].Error())
	}
	if len(l) > limit {
		fmt.Fprintf(b, "; ... (total %d)", len(l))
	}
	return b.String()
}

// For returns the failures recorded for name.
func (l ErrorList) For(name string) []RuleFailure {
	var out []RuleFailure
	for _, failure := range l {
		if failure.Field == name {
			out = append(out, failure)
		}
	}
	return out
}

// Fields returns the distinct field names with failures, in list order.
func (l ErrorList) Fields() []string {
	seen := make(map[string]struct{}, len(l))
	var out []string
	for _, failure := range l {
		if _, ok := seen[failure.Field]; ok {
			continue
		}
		seen[failure.Field] = struct{}{}
		out = append(out, failure.Field)
	}
	return out
}

// Messages groups messages by field name. Form-level messages use the "" key.
func (l ErrorList) Messages() map[string][]string {
	if len(l) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, failure := range l {
		out[failure.Field] = append(out[failure.Field], failure.Message)
	}
	return out
}

func (l ErrorList) clone() ErrorList {
	if len(l) == 0 {
		return nil
	}
	return append(ErrorList(nil), l...)
}

// AsErrorList extracts an ErrorList from err using errors.As.
func AsErrorList(err error) (ErrorList, bool) {
	if err == nil {
		return nil, false
	}
	var list ErrorList
	if errors.As(err, &list) {
		return list, true
	}
	return nil, false
}
