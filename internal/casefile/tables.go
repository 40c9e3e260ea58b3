package casefile

// Table is a child collection laid out for printing with fixed columns
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
	// MinRows is the number of lines a printed form always shows.
	MinRows int
}

// Minimum printed rows for child tables.
const (
	FamilyMinRows  = 5
	DefaultMinRows = 3
)

// Tables returns the child collections of c in document order
func (c Case) Tables() []Table {
	family := Table{
		Title:   "Family Composition",
		Columns: []string{"Name", "Relation", "Age", "Sex", "Status", "Education", "Address", "Occupation", "Income"},
		MinRows: FamilyMinRows,
	}
	for _, m := range c.Family {
		family.Rows = append(family.Rows, []string{m.Name, m.Relation, m.Age, m.Sex, m.Status, m.Education, m.Address, m.Occupation, m.Income})
	}

	extended := Table{
		Title:   "Extended Family",
		Columns: []string{"Name", "Relationship", "Age", "Sex", "Status", "Education", "Occupation", "Income"},
		MinRows: DefaultMinRows,
	}
	for _, m := range c.Extended {
		extended.Rows = append(extended.Rows, []string{m.Name, m.Relationship, m.Age, m.Sex, m.Status, m.Education, m.Occupation, m.Income})
	}

	education := Table{
		Title:   "Educational Attainment",
		Columns: []string{"Level", "School", "School Address", "Year Completed"},
		MinRows: DefaultMinRows,
	}
	for _, e := range c.Education {
		education.Rows = append(education.Rows, []string{e.Level, e.SchoolName, e.SchoolAddress, e.YearCompleted})
	}

	sacraments := Table{
		Title:   "Sacramental Records",
		Columns: []string{"Sacrament", "Date Received", "Place / Parish"},
		MinRows: DefaultMinRows,
	}
	for _, s := range c.Sacraments {
		sacraments.Rows = append(sacraments.Rows, []string{s.Sacrament, s.DateReceived, s.PlaceParish})
	}

	agencies := Table{
		Title:   "Previous Agencies",
		Columns: []string{"Agency", "Address / Date / Duration", "Services Received"},
		MinRows: DefaultMinRows,
	}
	for _, a := range c.Agencies {
		agencies.Rows = append(agencies.Rows, []string{a.Name, a.AddressDateDuration, a.ServicesReceived})
	}

	skills := Table{
		Title:   "Life Skills",
		Columns: []string{"Activity", "Date Completed", "Rating", "Notes"},
		MinRows: DefaultMinRows,
	}
	for _, l := range c.LifeSkills {
		skills.Rows = append(skills.Rows, []string{l.Activity, l.DateCompleted, l.PerformanceRating, l.Notes})
	}

	vitals := Table{
		Title:   "Vital Signs",
		Columns: []string{"Date", "Blood Pressure", "Heart Rate", "Temperature", "Weight", "Height", "Notes"},
		MinRows: DefaultMinRows,
	}
	for _, v := range c.VitalSigns {
		vitals.Rows = append(vitals.Rows, []string{v.DateRecorded, v.BloodPressure, v.HeartRate, v.Temperature, v.Weight, v.Height, v.Notes})
	}

	return []Table{family, extended, education, sacraments, agencies, skills, vitals}
}

// Padded returns the rows followed by blank rows up to MinRows
func (t Table) Padded() [][]string {
	out := make([][]string, 0, max(len(t.Rows), t.MinRows))
	out = append(out, t.Rows...)
	for len(out) < t.MinRows {
		out = append(out, make([]string, len(t.Columns)))
	}
	return out
}

// Item is a case paired with its normalized view, the unit batch renderers
// work on.
type Item struct {
	Case Case
	View View
}

// NewItem normalizes c with n
func NewItem(n *Normalizer, c Case) Item {
	return Item{Case: c, View: n.Normalize(c.Fields)}
}

// SummaryColumns are the columns of a batch summary table
var SummaryColumns = []string{"Name", "Age", "Program", "Last Updated"}

// SummaryRow returns the batch summary cells for the item
func (i Item) SummaryRow() []string {
	updated := ""
	if !i.Case.UpdatedAt.IsZero() {
		updated = i.Case.UpdatedAt.Format("2006-01-02")
	}
	return []string{
		i.Case.Label(i.View),
		i.View.Text(FieldAge),
		i.View.Text(FieldProgramType),
		updated,
	}
}
