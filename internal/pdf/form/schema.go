package form

import (
	"github.com/a3tai/casedocs/internal/casefile"
)

// FieldKind is the AcroForm field type a schema entry is created as
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldCheckbox
)

// String returns the pdfcpu form JSON name of the kind
func (k FieldKind) String() string {
	if k == FieldCheckbox {
		return "checkbox"
	}
	return "textfield"
}

// FieldSpec is one declared form field: the canonical case field it carries,
// its kind and where provisioning places it (PDF points, origin lower-left).
type FieldSpec struct {
	Name      string
	Kind      FieldKind
	Page      int
	X         float64
	Y         float64
	Width     float64
	Height    float64
	Multiline bool
}

// Schema is the declared field set shared by provisioning and filling
type Schema []FieldSpec

// Lookup finds a field by canonical name
func (s Schema) Lookup(name string) (FieldSpec, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Names returns the field names in declaration order
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for _, f := range s {
		names = append(names, f.Name)
	}
	return names
}

// Intake template geometry (US Letter).
const (
	intakeLeftX      = 150.0
	intakeRightX     = 420.0
	intakeFieldWidth = 150.0
	intakeTopY       = 690.0
	intakeRowStep    = 22.0
	intakeBoxSize    = 12.0
)

// IntakeSchema returns the declared fields of the intake template. Scalars
// fill page 1 in two columns, the civil-status boxes close page 1, and the
// narratives take multiline boxes on page 2.
func IntakeSchema() Schema {
	var schema Schema

	scalars := make([]string, 0, 40)
	for _, group := range [][]string{
		casefile.IdentityFields, casefile.AddressFields, casefile.ReferralFields,
		casefile.ProgramFields, casefile.FamilyFields,
	} {
		scalars = append(scalars, group...)
	}

	y := intakeTopY
	for i, name := range scalars {
		x := intakeLeftX
		if i%2 == 1 {
			x = intakeRightX
		}
		schema = append(schema, FieldSpec{
			Name: name, Kind: FieldText, Page: 1,
			X: x, Y: y, Width: intakeFieldWidth, Height: 14,
		})
		if i%2 == 1 {
			y -= intakeRowStep
		}
	}

	y -= 2 * intakeRowStep
	for i, name := range casefile.CivilStatusFields {
		schema = append(schema, FieldSpec{
			Name: name, Kind: FieldCheckbox, Page: 1,
			X: 60 + float64(i)*105, Y: y, Width: intakeBoxSize, Height: intakeBoxSize,
		})
	}

	y = 700
	for _, name := range casefile.NarrativeFields {
		schema = append(schema, FieldSpec{
			Name: name, Kind: FieldText, Page: 2,
			X: 60, Y: y, Width: 490, Height: 58, Multiline: true,
		})
		y -= 74
	}
	return schema
}
