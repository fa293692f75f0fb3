package form

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TimeOfDay matches a 24h "HH:MM" clock time.
var TimeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Field describes one string form field and its rules.
type Field struct {
	name       string
	optional   bool
	nullable   bool
	def        string
	missingMsg string
	rules      []Rule
}

// String declares a required string field.
func String(name string, rules ...Rule) *Field {
	return &Field{name: name, rules: rules}
}

// Enum declares a required field whose value must be one of values.
func Enum(name string, values ...string) *Field {
	return String(name, OneOf(values...))
}

// Optional makes the field optional; an absent value becomes def.
func (f *Field) Optional(def string) *Field {
	f.optional = true
	f.def = def
	return f
}

// Nullable treats an explicit null like an absent value.
func (f *Field) Nullable() *Field {
	f.nullable = true
	return f
}

// RequiredMessage overrides the message reported when the value is missing.
func (f *Field) RequiredMessage(msg string) *Field {
	f.missingMsg = msg
	return f
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

func (f *Field) missingMessage() string {
	if f.missingMsg != "" {
		return f.missingMsg
	}
	return "Required"
}

func (f *Field) issue(code, msg string) Issue {
	return Issue{Path: []string{f.name}, Message: msg, Code: code}
}

// Rule is one constraint on a string value. check returns the message and
// true when the value violates the rule.
type Rule interface {
	code() string
	check(v string) (string, bool)
}

// validate backs the length, enum and e-mail rules. Lengths count runes.
var validate = validator.New()

type minLength struct {
	n   int
	msg string
}

// MinLength requires at least n characters. MinLength(1, msg) is the
// non-empty requirement.
func MinLength(n int, msg string) Rule { return minLength{n: n, msg: msg} }

// Required is the non-empty requirement.
func Required(msg string) Rule { return minLength{n: 1, msg: msg} }

func (r minLength) code() string {
	if r.n == 1 {
		return CodeRequired
	}
	return CodeTooSmall
}

func (r minLength) check(v string) (string, bool) {
	if err := validate.Var(v, fmt.Sprintf("min=%d", r.n)); err == nil {
		return "", false
	}
	if r.msg != "" {
		return r.msg, true
	}
	return fmt.Sprintf("String must contain at least %d character(s)", r.n), true
}

type maxLength struct {
	n   int
	msg string
}

// MaxLength allows at most n characters. An empty msg uses the default text.
func MaxLength(n int, msg string) Rule { return maxLength{n: n, msg: msg} }

func (r maxLength) code() string { return CodeTooBig }

func (r maxLength) check(v string) (string, bool) {
	if err := validate.Var(v, fmt.Sprintf("max=%d", r.n)); err == nil {
		return "", false
	}
	if r.msg != "" {
		return r.msg, true
	}
	return fmt.Sprintf("String must contain at most %d character(s)", r.n), true
}

type pattern struct {
	re  *regexp.Regexp
	msg string
}

// Pattern requires the value to match re.
func Pattern(re *regexp.Regexp, msg string) Rule { return pattern{re: re, msg: msg} }

func (r pattern) code() string { return CodePattern }

func (r pattern) check(v string) (string, bool) {
	if r.re.MatchString(v) {
		return "", false
	}
	if r.msg != "" {
		return r.msg, true
	}
	return "Invalid", true
}

type oneOf struct {
	values []string
	tag    string
}

// OneOf requires the value to be a member of values. Values are single
// tokens: no spaces, commas or pipes.
func OneOf(values ...string) Rule {
	return oneOf{values: values, tag: "oneof=" + strings.Join(values, " ")}
}

func (r oneOf) code() string { return CodeEnum }

func (r oneOf) check(v string) (string, bool) {
	if err := validate.Var(v, r.tag); err == nil {
		return "", false
	}
	quoted := make([]string, len(r.values))
	for i, allowed := range r.values {
		quoted[i] = "'" + allowed + "'"
	}
	return fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", strings.Join(quoted, " | "), v), true
}

type email struct {
	msg string
}

// Email requires a syntactically valid e-mail address.
func Email(msg string) Rule { return email{msg: msg} }

func (r email) code() string { return CodeEmail }

func (r email) check(v string) (string, bool) {
	if err := validate.Var(v, "required,email"); err == nil {
		return "", false
	}
	if r.msg != "" {
		return r.msg, true
	}
	return "Invalid email", true
}
