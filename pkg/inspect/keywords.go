package inspect

// Keywords is the marker table the classifier matches against. It is plain
// data so it can be loaded from configuration and localised.
type Keywords struct {
	// SectionHeaders are phrases of which any one marks the upload workflow.
	SectionHeaders []string `yaml:"section_headers" json:"section_headers"`

	// HeaderGroups are phrase sets that mark the workflow when all of a set appear.
	HeaderGroups [][]string `yaml:"header_groups" json:"header_groups"`

	// ChoiceOptions are the options shown on the initial choice screen.
	ChoiceOptions []string `yaml:"choice_options" json:"choice_options"`

	// UploadEntry is the visible text of the option that opens the upload screen.
	UploadEntry string `yaml:"upload_entry" json:"upload_entry"`

	// ReviewMarkers are phrases shown on the review step.
	ReviewMarkers []string `yaml:"review_markers" json:"review_markers"`

	// DescriptionNeedles are name/id fragments of the description field.
	DescriptionNeedles []string `yaml:"description_needles" json:"description_needles"`

	// AdvanceLabels label the control that submits the upload screen.
	AdvanceLabels []string `yaml:"advance_labels" json:"advance_labels"`

	// SecondAdvanceLabels label the control that leaves the review step.
	SecondAdvanceLabels []string `yaml:"second_advance_labels" json:"second_advance_labels"`

	// Import screen element ids.
	ImportEDIInput     string `yaml:"import_edi_input" json:"import_edi_input"`
	ImportArchiveInput string `yaml:"import_archive_input" json:"import_archive_input"`
	ImportSubmit       string `yaml:"import_submit" json:"import_submit"`

	// PatientFormMarker is a fragment of the patient maintenance page URL.
	PatientFormMarker string `yaml:"patient_form_marker" json:"patient_form_marker"`

	// ContactPageMarker is a fragment of the consultation journal frame URL.
	ContactPageMarker string `yaml:"contact_page_marker" json:"contact_page_marker"`
}

// DefaultKeywords returns the marker table for the Dutch host application.
func DefaultKeywords() Keywords {
	return Keywords{
		SectionHeaders: []string{
			"Document uploaden",
			"Document scannen",
			"Brief samenstellen",
		},
		HeaderGroups: [][]string{
			{"Omschrijving", "Bestand"},
		},
		ChoiceOptions: []string{
			"Brief samenstellen",
			"Document scannen",
			"Document uploaden",
		},
		UploadEntry:         "Document uploaden",
		ReviewMarkers:       []string{"Controleer", "Preview"},
		DescriptionNeedles:  []string{"omschrijving"},
		AdvanceLabels:       []string{"verder", "upload", "volgende"},
		SecondAdvanceLabels: []string{"verder", "volgende", "doorgaan"},
		ImportEDIInput:      "ediFile",
		ImportArchiveInput:  "correspondentieFile",
		ImportSubmit:        "Script_Bestand inlezen",
		PatientFormMarker:   "admin.onderhoud.patienten",
		ContactPageMarker:   "medischdossier.journaal",
	}
}
