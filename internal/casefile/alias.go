package casefile

import (
	"fmt"
	"strings"
)

// Record is a loosely-typed case payload. Keys may follow either naming
// convention (camelCase or snake_case) and sub-groups may be nested objects.
type Record map[string]any

// Resolve returns the value of the first candidate key that is present,
// non-nil and not a blank string. A dotted candidate such as "father.name"
// walks nested objects.
func Resolve(r Record, candidates ...string) (any, bool) {
	for _, key := range candidates {
		v, ok := lookup(r, key)
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// ResolveString is Resolve with the winning value rendered as trimmed text.
func ResolveString(r Record, candidates ...string) string {
	v, ok := Resolve(r, candidates...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(stringify(v))
}

func lookup(r Record, key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	if v, ok := r[key]; ok {
		return v, true
	}
	head, rest, nested := strings.Cut(key, ".")
	if !nested {
		return nil, false
	}
	child, ok := asRecord(r[head])
	if !ok {
		return nil, false
	}
	return lookup(child, rest)
}

func asRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return Record(m), true
	default:
		return nil, false
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		// JSON numbers decode as float64; whole numbers should not print as 13.000000
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case float32:
		return stringify(float64(x))
	default:
		return fmt.Sprint(x)
	}
}

// FieldKind tells the normalizer how to coerce a resolved value
type FieldKind int

const (
	KindText FieldKind = iota
	KindDate
	KindFlag
	// KindAge is text that falls back to a value derived from the birthdate
	KindAge
)

// FieldSpec declares one canonical field and its aliases in priority order.
type FieldSpec struct {
	Name    string
	Label   string
	Kind    FieldKind
	Aliases []string
}

// AliasTable is the ordered set of canonical fields the normalizer produces.
type AliasTable []FieldSpec

// Lookup finds the spec for a canonical field name
func (t AliasTable) Lookup(name string) (FieldSpec, bool) {
	for _, f := range t {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Label returns the display label for a canonical field, falling back to the
// name itself.
func (t AliasTable) Label(name string) string {
	if f, ok := t.Lookup(name); ok && f.Label != "" {
		return f.Label
	}
	return name
}

// Canonical field names.
const (
	FieldCaseNumber   = "caseNumber"
	FieldIntakeDate   = "dateOfIntake"
	FieldFirstName    = "firstName"
	FieldMiddleName   = "middleName"
	FieldLastName     = "lastName"
	FieldNickname     = "nickname"
	FieldSex          = "sex"
	FieldBirthdate    = "birthdate"
	FieldAge          = "age"
	FieldStatus       = "status"
	FieldReligion     = "religion"
	FieldNationality  = "nationality"
	FieldBirthplace   = "birthplace"
	FieldContact      = "contactNumber"
	FieldPresentAddr  = "presentAddress"
	FieldProvinceAddr = "provincialAddress"

	FieldReferralSource   = "referralSource"
	FieldReferralOther    = "referralSourceOther"
	FieldReferralDate     = "referralDate"
	FieldReferralAddrTel  = "referralAddressTel"
	FieldReferralRelation = "referralRelation"

	FieldCaseType     = "caseType"
	FieldProgramType  = "programType"
	FieldAssignedHome = "assignedHome"

	FieldFatherName         = "fatherName"
	FieldFatherOccupation   = "fatherOccupation"
	FieldMotherName         = "motherName"
	FieldMotherOccupation   = "motherOccupation"
	FieldGuardianName       = "guardianName"
	FieldGuardianOccupation = "guardianOccupation"
	FieldGuardianRelation   = "guardianRelation"
	FieldGuardianAddress    = "guardianAddress"

	FieldMarriedInChurch = "marriedInChurch"
	FieldCivilMarriage   = "civilMarriage"
	FieldCommonLaw       = "commonLaw"
	FieldSeparated       = "separated"
	FieldWidowed         = "widowed"

	FieldProblem            = "problemPresented"
	FieldHistory            = "briefHistory"
	FieldEconomicSituation  = "economicSituation"
	FieldMedicalHistory     = "medicalHistory"
	FieldFamilyBackground   = "familyBackground"
	FieldAssessment         = "assessment"
	FieldRecommendation     = "recommendation"
	FieldClientDescription  = "clientDescription"
	FieldParentsDescription = "parentsDescription"
)

// Field groups used by the renderers to lay out sections.
var (
	IdentityFields = []string{
		FieldCaseNumber, FieldIntakeDate, FieldFirstName, FieldMiddleName, FieldLastName,
		FieldNickname, FieldSex, FieldBirthdate, FieldAge, FieldStatus, FieldReligion,
		FieldNationality, FieldBirthplace, FieldContact,
	}
	AddressFields  = []string{FieldPresentAddr, FieldProvinceAddr}
	ReferralFields = []string{
		FieldReferralSource, FieldReferralOther, FieldReferralDate, FieldReferralAddrTel,
		FieldReferralRelation,
	}
	ProgramFields = []string{FieldCaseType, FieldProgramType, FieldAssignedHome}
	FamilyFields  = []string{
		FieldFatherName, FieldFatherOccupation, FieldMotherName, FieldMotherOccupation,
		FieldGuardianName, FieldGuardianOccupation, FieldGuardianRelation, FieldGuardianAddress,
	}
	CivilStatusFields = []string{
		FieldMarriedInChurch, FieldCivilMarriage, FieldCommonLaw, FieldSeparated, FieldWidowed,
	}
	NarrativeFields = []string{
		FieldProblem, FieldHistory, FieldEconomicSituation, FieldMedicalHistory,
		FieldFamilyBackground, FieldClientDescription, FieldParentsDescription,
		FieldAssessment, FieldRecommendation,
	}
)

// DefaultAliasTable returns the alias priorities for every canonical field.
// Convention-A (camelCase) precedes convention-B (snake_case), and specific
// aliases precede generic fallbacks.
func DefaultAliasTable() AliasTable {
	return AliasTable{
		{FieldCaseNumber, "Case No.", KindText, []string{"caseNumber", "case_number", "caseNo", "case_no"}},
		{FieldIntakeDate, "Date of Intake", KindDate, []string{"dateOfIntake", "date_of_intake", "intakeDate", "intake_date", "createdAt", "created_at"}},
		{FieldFirstName, "First Name", KindText, []string{"firstName", "first_name", "firstname", "givenName", "given_name"}},
		{FieldMiddleName, "Middle Name", KindText, []string{"middleName", "middle_name", "middlename"}},
		{FieldLastName, "Last Name", KindText, []string{"lastName", "last_name", "lastname", "surname", "familyName", "family_name"}},
		{FieldNickname, "Nickname", KindText, []string{"nickname", "nickName", "nick_name"}},
		{FieldSex, "Sex", KindText, []string{"sex", "gender"}},
		{FieldBirthdate, "Date of Birth", KindDate, []string{"birthdate", "birthDate", "birth_date", "dateOfBirth", "date_of_birth", "dob"}},
		{FieldAge, "Age", KindAge, []string{"age"}},
		{FieldStatus, "Status", KindText, []string{"status", "civilStatus", "civil_status"}},
		{FieldReligion, "Religion", KindText, []string{"religion"}},
		{FieldNationality, "Nationality", KindText, []string{"nationality", "citizenship"}},
		{FieldBirthplace, "Place of Birth", KindText, []string{"birthplace", "birthPlace", "birth_place", "placeOfBirth", "place_of_birth"}},
		{FieldContact, "Contact No.", KindText, []string{"contactNumber", "contact_number", "phone", "telephone"}},

		{FieldPresentAddr, "Present Address", KindText, []string{"presentAddress", "present_address", "address"}},
		{FieldProvinceAddr, "Provincial Address", KindText, []string{"provincialAddress", "provincial_address", "provinceAddress", "province_address"}},

		{FieldReferralSource, "Source of Referral", KindText, []string{"referralSource", "referral_source", "referredBy", "referred_by", "source"}},
		{FieldReferralOther, "Other Source", KindText, []string{"referralSourceOther", "referral_source_other", "otherSource", "other_source"}},
		{FieldReferralDate, "Date of Referral", KindDate, []string{"referralDate", "referral_date", "dateReferred", "date_referred"}},
		{FieldReferralAddrTel, "Referrer Address / Tel.", KindText, []string{"referralAddressTel", "referral_address_tel", "referralAddress", "referral_address", "referralContact", "referral_contact"}},
		{FieldReferralRelation, "Relation to Client", KindText, []string{"referralRelation", "referral_relation", "relationToClient", "relation_to_client"}},

		{FieldCaseType, "Case Type", KindText, []string{"caseType", "case_type", "type"}},
		{FieldProgramType, "Program", KindText, []string{"programType", "program_type", "program"}},
		{FieldAssignedHome, "Assigned Home", KindText, []string{"assignedHome", "assigned_home", "home", "houseAssigned", "house_assigned"}},

		{FieldFatherName, "Father", KindText, []string{"fatherName", "father_name", "father.name"}},
		{FieldFatherOccupation, "Father's Occupation", KindText, []string{"fatherOccupation", "father_occupation", "father.occupation"}},
		{FieldMotherName, "Mother", KindText, []string{"motherName", "mother_name", "mother.name"}},
		{FieldMotherOccupation, "Mother's Occupation", KindText, []string{"motherOccupation", "mother_occupation", "mother.occupation"}},
		{FieldGuardianName, "Guardian", KindText, []string{"guardianName", "guardian_name", "guardian.name"}},
		{FieldGuardianOccupation, "Guardian's Occupation", KindText, []string{"guardianOccupation", "guardian_occupation", "guardian.occupation"}},
		{FieldGuardianRelation, "Guardian's Relation", KindText, []string{"guardianRelation", "guardian_relation", "guardian.relation", "guardian.relationship"}},
		{FieldGuardianAddress, "Guardian's Address", KindText, []string{"guardianAddress", "guardian_address", "guardian.address"}},

		{FieldMarriedInChurch, "Married in Church", KindFlag, []string{"marriedInChurch", "married_in_church"}},
		{FieldCivilMarriage, "Civil Marriage", KindFlag, []string{"civilMarriage", "civil_marriage", "marriedCivil", "married_civil"}},
		{FieldCommonLaw, "Common Law / Live-in", KindFlag, []string{"commonLaw", "common_law", "liveIn", "live_in"}},
		{FieldSeparated, "Separated", KindFlag, []string{"separated", "isSeparated", "is_separated"}},
		{FieldWidowed, "Widowed", KindFlag, []string{"widowed", "isWidowed", "is_widowed"}},

		{FieldProblem, "Problem Presented", KindText, []string{"problemPresented", "problem_presented", "problem"}},
		{FieldHistory, "Brief History", KindText, []string{"briefHistory", "brief_history", "history"}},
		{FieldEconomicSituation, "Economic Situation", KindText, []string{"economicSituation", "economic_situation"}},
		{FieldMedicalHistory, "Medical History", KindText, []string{"medicalHistory", "medical_history"}},
		{FieldFamilyBackground, "Family Background", KindText, []string{"familyBackground", "family_background"}},
		{FieldAssessment, "Assessment", KindText, []string{"assessment", "initialAssessment", "initial_assessment"}},
		{FieldRecommendation, "Recommendation", KindText, []string{"recommendation", "recommendations"}},
		{FieldClientDescription, "Description of Client", KindText, []string{"clientDescription", "client_description"}},
		{FieldParentsDescription, "Description of Parents", KindText, []string{"parentsDescription", "parents_description"}},
	}
}
