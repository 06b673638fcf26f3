package inspect

import (
	"strings"

	"github.com/entrhq/formpilot/pkg/types"
)

var (
	descriptionTags  = []string{"input", "textarea"}
	descriptionAttrs = []string{"name", "id"}
)

// Classify derives the wizard screen shown in snap.
func Classify(snap *Snapshot, kw Keywords) types.WorkflowState {
	target := snap.Target()
	if target == nil {
		return types.StateUnknown
	}

	switch {
	case IsDescriptionScreen(snap, kw):
		return types.StateDescriptionScreen
	case target.HasFileInput():
		return types.StateFileUploadScreen
	case hasAll(target, kw.ChoiceOptions):
		return types.StateInitialChoice
	case hasAny(target, kw.ReviewMarkers) && target.HasSubmitControl():
		return types.StateControlStep
	}

	if !IsAuthorizedContext(snap, kw) {
		return types.StateOffTarget
	}
	return types.StateUnknown
}

// IsAuthorizedContext reports whether the snapshot belongs to the upload
// workflow: any section header, or every phrase of a header group, appears in
// the page or frame text.
func IsAuthorizedContext(snap *Snapshot, kw Keywords) bool {
	if snap == nil {
		return false
	}
	combined := Fold(snap.CombinedText())
	for _, header := range kw.SectionHeaders {
		if header != "" && strings.Contains(combined, Fold(header)) {
			return true
		}
	}
	for _, group := range kw.HeaderGroups {
		if len(group) == 0 {
			continue
		}
		all := true
		for _, phrase := range group {
			if !strings.Contains(combined, Fold(phrase)) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// IsDescriptionScreen reports whether the target scope holds a description field.
func IsDescriptionScreen(snap *Snapshot, kw Keywords) bool {
	target := snap.Target()
	if target == nil {
		return false
	}
	for _, needle := range kw.DescriptionNeedles {
		if needle != "" && target.HasFieldLike(descriptionTags, descriptionAttrs, needle) {
			return true
		}
	}
	return false
}

// IsImportScreen reports whether the target scope is the EDI/archive import screen.
func IsImportScreen(snap *Snapshot, kw Keywords) bool {
	target := snap.Target()
	if target == nil || kw.ImportEDIInput == "" || kw.ImportArchiveInput == "" {
		return false
	}
	return target.HasElementID(kw.ImportEDIInput) && target.HasElementID(kw.ImportArchiveInput)
}

// IsPatientForm reports whether the top-level page is the patient maintenance form.
func IsPatientForm(snap *Snapshot, kw Keywords) bool {
	if snap == nil || kw.PatientFormMarker == "" {
		return false
	}
	return strings.Contains(snap.URL, kw.PatientFormMarker)
}

// IsContactPage reports whether the content frame shows the consultation journal.
func IsContactPage(snap *Snapshot, kw Keywords) bool {
	if snap == nil || snap.Frame == nil || kw.ContactPageMarker == "" {
		return false
	}
	return strings.Contains(snap.Frame.URL, kw.ContactPageMarker)
}

func hasAll(sc *Scope, phrases []string) bool {
	if len(phrases) == 0 {
		return false
	}
	for _, phrase := range phrases {
		if !sc.ContainsText(phrase) {
			return false
		}
	}
	return true
}

func hasAny(sc *Scope, phrases []string) bool {
	for _, phrase := range phrases {
		if phrase != "" && sc.ContainsText(phrase) {
			return true
		}
	}
	return false
}
