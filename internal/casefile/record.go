package casefile

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Case is one case record with its child collections
type Case struct {
	ID        string
	Fields    Record
	UpdatedAt time.Time

	Checklist  []ChecklistItem
	Family     []FamilyMember
	Extended   []ExtendedFamilyMember
	Education  []EducationalAttainment
	Sacraments []SacramentalRecord
	Agencies   []AgencyContact
	LifeSkills []LifeSkillEntry
	VitalSigns []VitalSignsEntry
}

// ChecklistItem is one ticked checklist entry
type ChecklistItem struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// FamilyMember is a member of the client's immediate family
type FamilyMember struct {
	Name       string `json:"name"`
	Relation   string `json:"relation"`
	Age        string `json:"age"`
	Sex        string `json:"sex"`
	Status     string `json:"status"`
	Education  string `json:"education"`
	Address    string `json:"address"`
	Occupation string `json:"occupation"`
	Income     string `json:"income"`
}

// ExtendedFamilyMember is a relative outside the immediate family
type ExtendedFamilyMember struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Age          string `json:"age"`
	Sex          string `json:"sex"`
	Status       string `json:"status"`
	Education    string `json:"education"`
	Occupation   string `json:"occupation"`
	Income       string `json:"income"`
}

// EducationalAttainment is one completed (or attended) school level
type EducationalAttainment struct {
	Level         string `json:"level"`
	SchoolName    string `json:"schoolName"`
	SchoolAddress string `json:"schoolAddress"`
	YearCompleted string `json:"yearCompleted"`
}

// SacramentalRecord is one received sacrament
type SacramentalRecord struct {
	Sacrament    string `json:"sacrament"`
	DateReceived string `json:"dateReceived"`
	PlaceParish  string `json:"placeParish"`
}

// AgencyContact is a previous agency the client received services from
type AgencyContact struct {
	Name                string `json:"name"`
	AddressDateDuration string `json:"addressDateDuration"`
	ServicesReceived    string `json:"servicesReceived"`
}

// LifeSkillEntry records one life-skill activity
type LifeSkillEntry struct {
	Activity          string `json:"activity"`
	DateCompleted     string `json:"dateCompleted"`
	PerformanceRating string `json:"performanceRating"`
	Notes             string `json:"notes"`
}

// VitalSignsEntry records one set of vital signs
type VitalSignsEntry struct {
	DateRecorded  string `json:"dateRecorded"`
	BloodPressure string `json:"bloodPressure"`
	HeartRate     string `json:"heartRate"`
	Temperature   string `json:"temperature"`
	Weight        string `json:"weight"`
	Height        string `json:"height"`
	Notes         string `json:"notes"`
}

// Collection keys in a raw payload, in priority order.
var (
	familyKeys     = []string{"familyMembers", "family_members", "family"}
	extendedKeys   = []string{"extendedFamily", "extended_family", "extendedFamilyMembers", "extended_family_members"}
	educationKeys  = []string{"educationalAttainment", "educational_attainment", "education"}
	sacramentKeys  = []string{"sacramentalRecords", "sacramental_records", "sacraments"}
	agencyKeys     = []string{"agencyContacts", "agency_contacts", "agencies"}
	lifeSkillKeys  = []string{"lifeSkills", "life_skills"}
	vitalSignKeys  = []string{"vitalSigns", "vital_signs"}
	checklistKeys  = []string{"checklist", "check_list"}
	caseIDKeys     = []string{"id", "caseId", "case_id"}
	updatedAtKeys  = []string{"updatedAt", "updated_at", "lastUpdated", "last_updated"}
	collectionKeys = [][]string{
		familyKeys, extendedKeys, educationKeys, sacramentKeys, agencyKeys,
		lifeSkillKeys, vitalSignKeys, checklistKeys,
	}
)

// DecodeCase builds a Case from a raw payload. Child rows may use either
// naming convention; rows that are not objects are skipped.
func DecodeCase(payload Record) Case {
	c := Case{
		ID:     ResolveString(payload, caseIDKeys...),
		Fields: make(Record, len(payload)),
	}
	for k, v := range payload {
		c.Fields[k] = v
	}
	for _, keys := range collectionKeys {
		for _, k := range keys {
			delete(c.Fields, k)
		}
	}

	if ts := ResolveString(payload, updatedAtKeys...); ts != "" {
		c.UpdatedAt = ParseTimestamp(ts)
	}

	for _, row := range rows(payload, familyKeys) {
		c.Family = append(c.Family, FamilyMember{
			Name:       ResolveString(row, "name", "fullName", "full_name"),
			Relation:   ResolveString(row, "relation", "relationship"),
			Age:        ResolveString(row, "age"),
			Sex:        ResolveString(row, "sex", "gender"),
			Status:     ResolveString(row, "status", "civilStatus", "civil_status"),
			Education:  ResolveString(row, "education", "educationalAttainment", "educational_attainment"),
			Address:    ResolveString(row, "address"),
			Occupation: ResolveString(row, "occupation"),
			Income:     ResolveString(row, "income", "monthlyIncome", "monthly_income"),
		})
	}
	for _, row := range rows(payload, extendedKeys) {
		c.Extended = append(c.Extended, ExtendedFamilyMember{
			Name:         ResolveString(row, "name", "fullName", "full_name"),
			Relationship: ResolveString(row, "relationship", "relation"),
			Age:          ResolveString(row, "age"),
			Sex:          ResolveString(row, "sex", "gender"),
			Status:       ResolveString(row, "status", "civilStatus", "civil_status"),
			Education:    ResolveString(row, "education", "educationalAttainment", "educational_attainment"),
			Occupation:   ResolveString(row, "occupation"),
			Income:       ResolveString(row, "income", "monthlyIncome", "monthly_income"),
		})
	}
	for _, row := range rows(payload, educationKeys) {
		c.Education = append(c.Education, EducationalAttainment{
			Level:         ResolveString(row, "level", "educationLevel", "education_level"),
			SchoolName:    ResolveString(row, "schoolName", "school_name", "school"),
			SchoolAddress: ResolveString(row, "schoolAddress", "school_address"),
			YearCompleted: ResolveString(row, "yearCompleted", "year_completed", "year"),
		})
	}
	for _, row := range rows(payload, sacramentKeys) {
		c.Sacraments = append(c.Sacraments, SacramentalRecord{
			Sacrament:    ResolveString(row, "sacrament"),
			DateReceived: NormalizeDate(ResolveString(row, "dateReceived", "date_received")),
			PlaceParish:  ResolveString(row, "placeParish", "place_parish", "parish"),
		})
	}
	for _, row := range rows(payload, agencyKeys) {
		c.Agencies = append(c.Agencies, AgencyContact{
			Name:                ResolveString(row, "name", "agencyName", "agency_name"),
			AddressDateDuration: ResolveString(row, "addressDateDuration", "address_date_duration"),
			ServicesReceived:    ResolveString(row, "servicesReceived", "services_received"),
		})
	}
	for _, row := range rows(payload, lifeSkillKeys) {
		c.LifeSkills = append(c.LifeSkills, LifeSkillEntry{
			Activity:          ResolveString(row, "activity"),
			DateCompleted:     NormalizeDate(ResolveString(row, "dateCompleted", "date_completed")),
			PerformanceRating: ResolveString(row, "performanceRating", "performance_rating", "rating"),
			Notes:             ResolveString(row, "notes", "remarks"),
		})
	}
	for _, row := range rows(payload, vitalSignKeys) {
		c.VitalSigns = append(c.VitalSigns, VitalSignsEntry{
			DateRecorded:  NormalizeDate(ResolveString(row, "dateRecorded", "date_recorded", "date")),
			BloodPressure: ResolveString(row, "bloodPressure", "blood_pressure", "bp"),
			HeartRate:     ResolveString(row, "heartRate", "heart_rate", "pulse"),
			Temperature:   ResolveString(row, "temperature", "temp"),
			Weight:        ResolveString(row, "weight"),
			Height:        ResolveString(row, "height"),
			Notes:         ResolveString(row, "notes", "remarks"),
		})
	}
	c.Checklist = DecodeChecklist(firstPresent(payload, checklistKeys))
	return c
}

// DecodeChecklist accepts a checklist as a list of objects or as a JSON string
// holding that list (the form the CRUD layer stores it in).
func DecodeChecklist(v any) []ChecklistItem {
	if s, ok := v.(string); ok {
		var decoded []any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil
		}
		v = decoded
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]ChecklistItem, 0, len(list))
	for _, entry := range list {
		switch e := entry.(type) {
		case string:
			if strings.TrimSpace(e) != "" {
				items = append(items, ChecklistItem{Text: e})
			}
		default:
			row, ok := asRecord(e)
			if !ok {
				continue
			}
			text := ResolveString(row, "text", "label", "item")
			if text == "" {
				continue
			}
			items = append(items, ChecklistItem{
				Text:      text,
				Timestamp: ResolveString(row, "timestamp", "checkedAt", "checked_at", "date"),
			})
		}
	}
	return items
}

// ParseTimestamp parses the timestamp layouts the CRUD layer emits. The zero
// time is returned for anything else.
func ParseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Label returns "Last, First" for summaries, falling back to the case id.
func (c Case) Label(v View) string {
	last, first := v.Text(FieldLastName), v.Text(FieldFirstName)
	switch {
	case last != "" && first != "":
		return last + ", " + first
	case last != "" || first != "":
		return last + first
	case c.ID != "":
		return fmt.Sprintf("Case %s", c.ID)
	default:
		return "Unnamed case"
	}
}

func firstPresent(r Record, keys []string) any {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func rows(r Record, keys []string) []Record {
	list, ok := firstPresent(r, keys).([]any)
	if !ok {
		if typed, isTyped := firstPresent(r, keys).([]map[string]any); isTyped {
			out := make([]Record, 0, len(typed))
			for _, m := range typed {
				out = append(out, Record(m))
			}
			return out
		}
		return nil
	}
	out := make([]Record, 0, len(list))
	for _, entry := range list {
		if row, ok := asRecord(entry); ok {
			out = append(out, row)
		}
	}
	return out
}
