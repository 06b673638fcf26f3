package workflow

// User-facing notification texts. The host application is Dutch, so are its users.
const (
	msgNotUploadPage       = "⚠️ Niet op document upload pagina. Upload geannuleerd."
	msgUnknownState        = "Kan uploadstatus niet bepalen"
	msgAccessFault         = "Kan iframe niet benaderen"
	msgNavigating          = "→ Navigeren naar Document uploaden..."
	msgUploadEntryMissing  = "Document uploaden knop niet gevonden"
	msgUploadScreenMissing = "Uploadscherm niet bereikt"
	msgUploadFieldMissing  = "Upload veld niet gevonden"
	msgFileAdded           = "✓ Bestand toegevoegd: %s"
	msgFileAddedPages      = "✓ Bestand toegevoegd: %s (%d pagina's)"
	msgAdvance             = "→ Verder..."
	msgManualAdvance       = "Klik handmatig op Verder"
	msgToDescription       = "→ Naar beschrijving..."
	msgDescriptionFilled   = "✓ Omschrijving ingevuld: %s"
	msgDescriptionPresent  = "Omschrijving was al ingevuld"
	msgDescriptionMissing  = "Omschrijving veld niet gevonden, vul handmatig in"
	msgInternalError       = "Interne fout, taak afgebroken"

	msgImportFilesAdded  = "✓ EDI en ZIP bestand toegevoegd"
	msgImportSubmitted   = "✓ Bestand inlezen gestart"
	msgImportScreenGone  = "Importscherm niet meer zichtbaar, inlezen geannuleerd"
	msgImportTargetsGone = "Importvelden niet gevonden"

	msgNotContactPage    = "Niet op een contactpagina, verwijzing geannuleerd"
	msgReferralMissing   = "Verwijzen knop niet gevonden"
	msgReferralFormGone  = "Verwijsformulier niet gevonden"
	msgReferralOpened    = "✓ Verwijzing geopend: %s"
	msgReferralSubmitted = "✓ ZorgDomein gestart"

	msgShortcutUnknown = "Onbekende snelkoppeling: %s"
	msgMenuMissing     = "Menu-item niet gevonden: %s"
	msgButtonMissing   = "Knop niet gevonden: %s"
	msgShortcutDone    = "✓ %s geopend"
)
