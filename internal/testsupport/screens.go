package testsupport

import (
	"testing"

	"github.com/entrhq/formpilot/pkg/host/memdoc"
)

// Host addresses used by the fixtures.
const (
	HostURL        = "https://www.promedico-asp.nl/promedico/index.html"
	UploadFrameURL = "https://www.promedico-asp.nl/promedico/document/upload.html"
	ImportFrameURL = "https://www.promedico-asp.nl/promedico/medovd/import.html"
	SearchFrameURL = "https://www.promedico-asp.nl/promedico/patient/zoeken.html"
	JournalURL     = "https://www.promedico-asp.nl/promedico/medischdossier.journaal.html"
	PatientFormURL = "https://www.promedico-asp.nl/promedico/admin.onderhoud.patienten.html"
)

// HostPage is the top-level page that embeds the content frame.
const HostPage = `<html><body>
<div id="MainMenu-Patiënt-Zoeken">Zoeken</div>
<iframe id="panelBackCompatibility-frame"></iframe>
</body></html>`

// ChoiceScreen is the first wizard screen with the three document options.
const ChoiceScreen = `<html><body>
<h2>Document toevoegen</h2>
<ul>
<li><a href="#" onclick="kies('brief')">Brief samenstellen</a></li>
<li><a href="#" onclick="kies('scan')">Document scannen</a></li>
<li><a href="#" onclick="kies('upload')">Document uploaden</a></li>
</ul>
</body></html>`

// UploadScreen holds the file input.
const UploadScreen = `<html><body>
<h2>Document uploaden</h2>
<form>
<label for="bestand">Bestand</label>
<input type="file" id="bestand" name="bestand">
<button type="submit">Verder</button>
</form>
</body></html>`

// ControlScreen is the review step between upload and description.
const ControlScreen = `<html><body>
<h2>Document uploaden</h2>
<p>Controleer het document in de preview hieronder.</p>
<div class="preview">Preview</div>
<button type="button">Volgende</button>
</body></html>`

// DescriptionScreen holds an empty description field.
const DescriptionScreen = `<html><body>
<h2>Document uploaden</h2>
<p>Bestand: ontvangen</p>
<label for="omschrijving">Omschrijving</label>
<input type="text" id="omschrijving" name="document.omschrijving" value="">
<button type="submit">Opslaan</button>
</body></html>`

// OffTargetScreen is a readable page unrelated to document uploads.
const OffTargetScreen = `<html><body>
<h2>Agenda</h2>
<p>Geen afspraken vandaag.</p>
</body></html>`

// ImportScreen is the EDI/archive import screen.
const ImportScreen = `<html><body>
<h2>MEDOVD importeren</h2>
<input type="file" id="ediFile" name="ediFile">
<input type="file" id="correspondentieFile" name="correspondentieFile">
<input type="button" id="Script_Bestand inlezen" value="Bestand inlezen">
</body></html>`

// SearchScreen is the patient search screen with its sidebar actions.
const SearchScreen = `<html><body>
<h2>Patiënt zoeken</h2>
<button id="action_medOvdImporteren">MEDOVD importeren</button>
<button id="action_Nieuwe patient inschrijven">Nieuwe patiënt inschrijven</button>
</body></html>`

// JournalScreen is the consultation journal with its action bar.
const JournalScreen = `<html><body>
<h2>Journaal</h2>
<table id="actionbuttons"><tr>
<td class="actie">Nieuw contact</td>
<td class="actie">Verwijzen</td>
</tr></table>
</body></html>`

// ReferralScreen is the referral form reached from the journal.
const ReferralScreen = `<html><body>
<h2>Verwijzing</h2>
<input type="text" id="specMnem" name="specMnem" value="">
<input type="button" id="action_via zorgDomein" value="via ZorgDomein">
</body></html>`

// PatientForm is the patient registration form.
const PatientForm = `<html><body>
<form>
<input type="text" id="patientPersoonWrapper.persoon.achternaam">
<input type="text" id="patientPersoonWrapper.persoon.partnerachternaam">
<input type="text" id="patientPersoonWrapper.persoon.tussenvoegsel">
<select id="patientPersoonWrapper.persoon.naamgebruik">
<option value="">-- kies --</option>
<option value="eigen">Eigen naam</option>
<option value="partner">Naam partner</option>
<option value="partner_eigen">Naam partner gevolgd door eigen naam</option>
<option value="eigen_partner">Eigen naam gevolgd door naam partner</option>
</select>
<input type="text" id="patientPersoonWrapper.persoon.voorletters">
<input type="text" id="patientPersoonWrapper.persoon.roepnaam">
<input type="text" id="patientPersoonWrapper.persoon.geboortedatum">
<input type="text" id="patientPersoonWrapper.persoon.geboorteplaats">
<select id="patientPersoonWrapper.persoon.geslachtString">
<option value="">-- kies --</option>
<option value="M">Man</option>
<option value="V">Vrouw</option>
</select>
<input type="text" id="patientPersoonWrapper.persoon.beroep">
<input type="text" id="patientPersoonWrapper.persoon.telefoonnummer1">
<input type="text" id="patientPersoonWrapper.persoon.email">
<select id="praktijkMedewerker">
<option value="">-- kies --</option>
<option value="101">Dr. J. de Vries</option>
<option value="102">E.A. Westerbeek van Eerten</option>
</select>
<input type="text" id="bsn">
<input type="text" id="patientPersoonWrapper.persoon.identificatieDocNumber">
<select id="patientPersoonWrapper.persoon.widDocSoort">
<option value="">-- kies --</option>
<option value="P">Paspoort</option>
<option value="R">Rijbewijs</option>
<option value="I">Identiteitskaart</option>
</select>
<input type="radio" id="identiteitVergewistJa" name="identiteitVergewist" value="true">
<input type="radio" id="identiteitVergewistNee" name="identiteitVergewist" value="false">
</form>
</body></html>`

// NewHost returns a document showing HostPage with frame as content.
func NewHost(t testing.TB, frameURL, frame string) *memdoc.Document {
	t.Helper()

	doc, err := memdoc.New(HostURL, HostPage)
	if err != nil {
		t.Fatalf("parse host page: %v", err)
	}
	if err := doc.SetFrame(frameURL, frame); err != nil {
		t.Fatalf("parse frame: %v", err)
	}
	return doc
}

// NewWizard returns a host document showing start inside the content frame,
// with click hooks that advance through the upload wizard the way the host
// application does.
func NewWizard(t testing.TB, start string) *memdoc.Document {
	t.Helper()

	doc := NewHost(t, UploadFrameURL, start)
	doc.OnClick("Document uploaden", frameSetter(t, UploadFrameURL, UploadScreen))
	doc.OnClick("Verder", frameSetter(t, UploadFrameURL, ControlScreen))
	doc.OnClick("Volgende", frameSetter(t, UploadFrameURL, DescriptionScreen))
	return doc
}

// NewJournal returns a host document on the consultation journal whose
// "Verwijzen" action opens the referral form.
func NewJournal(t testing.TB) *memdoc.Document {
	t.Helper()

	doc := NewHost(t, JournalURL, JournalScreen)
	doc.OnClick("Verwijzen", frameSetter(t, JournalURL, ReferralScreen))
	return doc
}

// NewMenuHost returns a host document whose main menu opens the patient
// search screen, from which the import screen can be reached.
func NewMenuHost(t testing.TB) *memdoc.Document {
	t.Helper()

	doc := NewHost(t, UploadFrameURL, OffTargetScreen)
	doc.OnClick("MainMenu-Patiënt-Zoeken", frameSetter(t, SearchFrameURL, SearchScreen))
	doc.OnClick("action_medOvdImporteren", frameSetter(t, ImportFrameURL, ImportScreen))
	return doc
}

// NewPatientForm returns a document showing the registration form at the top level.
func NewPatientForm(t testing.TB) *memdoc.Document {
	t.Helper()

	doc, err := memdoc.New(PatientFormURL, PatientForm)
	if err != nil {
		t.Fatalf("parse patient form: %v", err)
	}
	return doc
}

func frameSetter(t testing.TB, url, markup string) memdoc.Hook {
	return func(d *memdoc.Document) {
		if err := d.SetFrame(url, markup); err != nil {
			t.Errorf("set frame: %v", err)
		}
	}
}
