// Package store loads case records and their child collections from the
// CRUD layer's storage.
package store

import (
	"context"

	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/errors"
)

// Store loads one case by id
type Store interface {
	Get(ctx context.Context, id string) (casefile.Case, error)
}

// ErrNotFound matches (via errors.Is) every not-found error of this package
var ErrNotFound = errors.New(errors.ErrorTypeInputNotFound, "case not found")

func notFound(id string) error {
	return errors.New(errors.ErrorTypeInputNotFound, "case not found").WithContext("id " + id)
}

// Child collections as stored by the CRUD layer: the payload key DecodeCase
// reads, its camelCase twin, the table (or REST sub-resource) and the columns.
type collection struct {
	key      string
	camelKey string
	table    string
	resource string
	columns  []string
}

var collections = []collection{
	{"family_members", "familyMembers", "family_members", "family-members",
		[]string{"name", "relation", "age", "sex", "status", "education", "address", "occupation", "income"}},
	{"extended_family", "extendedFamily", "extended_family", "extended-family",
		[]string{"name", "relationship", "age", "sex", "status", "education", "occupation", "income"}},
	{"educational_attainment", "educationalAttainment", "educational_attainment", "educational-attainment",
		[]string{"level", "school_name", "school_address", "year_completed"}},
	{"sacramental_records", "sacramentalRecords", "sacramental_records", "sacramental-records",
		[]string{"sacrament", "date_received", "place_parish"}},
	{"agency_contacts", "agencyContacts", "agency_contacts", "agency-contacts",
		[]string{"agency_name", "address_date_duration", "services_received"}},
	{"life_skills", "lifeSkills", "life_skills", "life-skills",
		[]string{"activity", "date_completed", "performance_rating", "notes"}},
	{"vital_signs", "vitalSigns", "vital_signs", "vital-signs",
		[]string{"date_recorded", "blood_pressure", "heart_rate", "temperature", "weight", "height", "notes"}},
}
