package casefile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Tri is a civil-status flag that may be absent
type Tri int

const (
	TriAbsent Tri = iota
	TriYes
	TriNo
)

// String renders the flag as Yes, No or the empty string
func (t Tri) String() string {
	switch t {
	case TriYes:
		return "Yes"
	case TriNo:
		return "No"
	default:
		return ""
	}
}

// Value is one resolved canonical field
type Value struct {
	Kind FieldKind
	Text string
	Flag Tri
}

// Empty reports whether the value resolved to nothing
func (v Value) Empty() bool {
	if v.Kind == KindFlag {
		return v.Flag == TriAbsent
	}
	return v.Text == ""
}

// View is the normalized, render-ready view of one case. It is built fresh for
// every render request and never stored.
type View map[string]Value

// Text returns the display text of a field ("" when absent)
func (v View) Text(name string) string {
	val, ok := v[name]
	if !ok {
		return ""
	}
	if val.Kind == KindFlag {
		return val.Flag.String()
	}
	return val.Text
}

// Flag returns the tri-state value of a flag field
func (v View) Flag(name string) Tri {
	return v[name].Flag
}

// Has reports whether a field resolved to a non-empty value
func (v View) Has(name string) bool {
	val, ok := v[name]
	return ok && !val.Empty()
}

// FullName joins first, middle and last names
func (v View) FullName() string {
	parts := make([]string, 0, 3)
	for _, f := range []string{FieldFirstName, FieldMiddleName, FieldLastName} {
		if s := v.Text(f); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Normalizer builds Views from raw records using an alias table
type Normalizer struct {
	table AliasTable
	now   func() time.Time
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithClock sets the clock used to derive ages
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithAliasTable replaces the default alias table
func WithAliasTable(t AliasTable) Option {
	return func(n *Normalizer) { n.table = t }
}

// NewNormalizer creates a normalizer with the default alias table
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		table: DefaultAliasTable(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Table returns the alias table in use
func (n *Normalizer) Table() AliasTable {
	return n.table
}

// Normalize resolves every canonical field of r. It never fails: fields that
// cannot be resolved are simply left out of the view.
func (n *Normalizer) Normalize(r Record) View {
	view := make(View, len(n.table))
	for _, spec := range n.table {
		raw, found := Resolve(r, spec.Aliases...)
		val := Value{Kind: spec.Kind}
		switch spec.Kind {
		case KindFlag:
			if found {
				val.Flag = coerceFlag(raw)
			}
		case KindDate:
			if found {
				val.Text = normalizeDateValue(raw)
			}
		default:
			if found {
				val.Text = strings.TrimSpace(stringify(raw))
			}
		}
		if !val.Empty() {
			view[spec.Name] = val
		}
	}

	// Derived age only applies when no explicit age was supplied.
	if ageSpec, ok := n.table.Lookup(FieldAge); ok && !view.Has(FieldAge) {
		if age := DeriveAge(view.Text(FieldBirthdate), n.now()); age != "" {
			view[FieldAge] = Value{Kind: ageSpec.Kind, Text: age}
		}
	}
	return view
}

func coerceFlag(v any) Tri {
	switch x := v.(type) {
	case bool:
		if x {
			return TriYes
		}
		return TriNo
	case float64:
		if x != 0 {
			return TriYes
		}
		return TriNo
	case int:
		if x != 0 {
			return TriYes
		}
		return TriNo
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "yes", "y", "true", "t", "1", "on", "checked":
			return TriYes
		case "no", "n", "false", "f", "0", "off":
			return TriNo
		}
	}
	return TriAbsent
}

var (
	isoDatePattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// NormalizeDate reduces a date-like string to YYYY-MM-DD. ISO-prefixed values
// keep their date part and M/D/YYYY values are zero padded; anything else is
// returned unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}
	if m := slashDatePattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
	}
	return s
}

func normalizeDateValue(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.Format("2006-01-02")
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format("2006-01-02")
	default:
		return NormalizeDate(stringify(v))
	}
}

// DeriveAge computes whole years between birthdate (any form NormalizeDate
// understands) and asOf. On the anniversary itself the birthday counts.
// Returns "" when the birthdate is absent or unparseable.
func DeriveAge(birthdate string, asOf time.Time) string {
	if birthdate == "" {
		return ""
	}
	born, err := time.Parse("2006-01-02", NormalizeDate(birthdate))
	if err != nil {
		return ""
	}
	age := asOf.Year() - born.Year()
	if asOf.Month() < born.Month() || (asOf.Month() == born.Month() && asOf.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return ""
	}
	return strconv.Itoa(age)
}
