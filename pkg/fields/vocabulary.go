package fields

import (
	"sort"
	"strings"

	"github.com/entrhq/formpilot/pkg/inspect"
)

// Label is a canonical field name.
type Label string

const (
	From                 Label = "From"
	MessageBody          Label = "MessageBody"
	Initials             Label = "Initials"
	FirstNames           Label = "FirstNames"
	Prefix               Label = "Prefix"
	Surname              Label = "Surname"
	MaidenName           Label = "MaidenName"
	NameOrder            Label = "NameOrder"
	BSN                  Label = "BSN"
	IDType               Label = "IDType"
	IDNumber             Label = "IDNumber"
	Birthplace           Label = "Birthplace"
	Birthdate            Label = "Birthdate"
	Gender               Label = "Gender"
	Occupation           Label = "Occupation"
	Address              Label = "Address"
	Phone                Label = "Phone"
	Email                Label = "Email"
	Insurer              Label = "Insurer"
	PolicyNumber         Label = "PolicyNumber"
	PolicyDate           Label = "PolicyDate"
	Pharmacy             Label = "Pharmacy"
	LSPConsent           Label = "LSPConsent"
	PreviousGP           Label = "PreviousGP"
	PreviousGPAddress    Label = "PreviousGPAddress"
	PreviousGPPhone      Label = "PreviousGPPhone"
	RecordRequestConsent Label = "RecordRequestConsent"
	PatientNotes         Label = "PatientNotes"
)

// Vocabulary maps label phrases, as they appear in pasted text, to canonical
// labels. Phrases are matched case-insensitively.
type Vocabulary map[string]Label

// DefaultVocabulary returns the phrases of the registration mail (Dutch) plus
// their English equivalents. Every canonical label also matches itself.
func DefaultVocabulary() Vocabulary {
	v := Vocabulary{
		"Van":                          From,
		"From":                         From,
		"Berichtinhoud":                MessageBody,
		"Message":                      MessageBody,
		"Voorletters":                  Initials,
		"Voornamen":                    FirstNames,
		"First names":                  FirstNames,
		"Tussenvoegsel":                Prefix,
		"Achternaam":                   Surname,
		"Last name":                    Surname,
		"Meisjesnaam":                  MaidenName,
		"Maiden name":                  MaidenName,
		"Naam volgorde":                NameOrder,
		"Name order":                   NameOrder,
		"Type ID bewijs":               IDType,
		"ID type":                      IDType,
		"ID bewijs nummer":             IDNumber,
		"ID number":                    IDNumber,
		"Geboorteplaats":               Birthplace,
		"Place of birth":               Birthplace,
		"Geboortedatum":                Birthdate,
		"Date of birth":                Birthdate,
		"Geslacht":                     Gender,
		"Beroep":                       Occupation,
		"Adresgegevens":                Address,
		"Telefoonnummer":               Phone,
		"E-mail":                       Email,
		"Zorgverzekeraar":              Insurer,
		"Polisnummer":                  PolicyNumber,
		"Polisdatum":                   PolicyDate,
		"Apotheek":                     Pharmacy,
		"LSP toestemming":              LSPConsent,
		"Vorige huisarts":              PreviousGP,
		"Adres huisarts":               PreviousGPAddress,
		"Telefoonnummer huisarts":      PreviousGPPhone,
		"Toestemming opvragen dossier": RecordRequestConsent,
		"Opmerkingen patient":          PatientNotes,
	}
	for _, label := range AllLabels() {
		v[string(label)] = label
	}
	return v
}

// AllLabels returns every canonical label.
func AllLabels() []Label {
	return []Label{
		From, MessageBody, Initials, FirstNames, Prefix, Surname, MaidenName,
		NameOrder, BSN, IDType, IDNumber, Birthplace, Birthdate, Gender,
		Occupation, Address, Phone, Email, Insurer, PolicyNumber, PolicyDate,
		Pharmacy, LSPConsent, PreviousGP, PreviousGPAddress, PreviousGPPhone,
		RecordRequestConsent, PatientNotes,
	}
}

// IsLabel reports whether name is a canonical label.
func IsLabel(name string) bool {
	for _, label := range AllLabels() {
		if string(label) == name {
			return true
		}
	}
	return false
}

// Resolve returns the canonical label for phrase.
func (v Vocabulary) Resolve(phrase string) (Label, bool) {
	want := inspect.Fold(strings.TrimSpace(phrase))
	for p, label := range v {
		if inspect.Fold(p) == want {
			return label, true
		}
	}
	return "", false
}

// phrases returns the vocabulary phrases, longest first, so that a phrase is
// never shadowed by one of its prefixes.
func (v Vocabulary) phrases() []string {
	out := make([]string, 0, len(v))
	for p := range v {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
