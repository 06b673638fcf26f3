package intake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formpilot/internal/testsupport"
	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/fields"
	"github.com/entrhq/formpilot/pkg/inspect"
)

func TestDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"3 may 1980", "03-05-1980"},
		{"3 mei 1980", "03-05-1980"},
		{"12 mrt 1975", "12-03-1975"},
		{"12 maart 1975", "12-03-1975"},
		{"1 Oct 2001", "01-10-2001"},
		{"1 okt. 2001", "01-10-2001"},
		{"25 december 1999", "25-12-1999"},
		{"7 foo 1990", "07-foo-1990"},
		{"03-05-1980", "03-05-1980"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Date(tt.in), tt.in)
	}
}

func TestNameOrder(t *testing.T) {
	assert.Equal(t, "eigen", NameOrder("Eigen"))
	assert.Equal(t, "partner_eigen", NameOrder("Partner - Eigen"))
	assert.Equal(t, "eigen_partner", NameOrder(" Eigen – partner "))
	assert.Equal(t, "partner_eigen", NameOrder("partner  eigen"))
}

func TestGender(t *testing.T) {
	assert.Equal(t, "M", Gender("Man"))
	assert.Equal(t, "M", Gender("male"))
	assert.Equal(t, "M", Gender("M"))
	assert.Equal(t, "V", Gender("Vrouw"))
	assert.Equal(t, "V", Gender("Woman"))
	assert.Equal(t, "V", Gender("female"))
	assert.Equal(t, "V", Gender("onbekend"))
}

func TestIDType(t *testing.T) {
	assert.Equal(t, "P", IDType("Paspoort"))
	assert.Equal(t, "R", IDType("rijbewijs"))
	assert.Equal(t, "I", IDType("Identity card"))
	assert.Equal(t, "Verblijfsdocument", IDType("Verblijfsdocument"))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "JP", Initials("J.P."))
}

func TestWriter_Fill(t *testing.T) {
	ctx := context.Background()
	doc := testsupport.NewPatientForm(t)
	exec := action.New(doc, inspect.DefaultKeywords())

	cfg := DefaultConfig()
	cfg.PractitionerNeedles = []string{"E.A.", "Westerbeek van Eerten"}
	w := NewWriter(exec, cfg, nil)
	require.True(t, w.Ready(ctx))

	rec := fields.Parse("Van: Aanmelding <jan@example.nl>\n" +
		"Voorletters: J.P.\n" +
		"Achternaam: Jansen\n" +
		"Meisjesnaam: Bakker\n" +
		"Naam volgorde: Partner - Eigen\n" +
		"Geboortedatum: 3 mei 1980\n" +
		"Geslacht: Vrouw\n" +
		"BSN: 123456782\n" +
		"Type ID bewijs: Paspoort\n" +
		"Apotheek: De Vijzel\n")

	res, err := w.Fill(ctx, rec)
	require.NoError(t, err)

	// 9 mapped fields plus practitioner and identity radio; the pharmacy has no target
	assert.Equal(t, 11, res.Written)
	assert.Empty(t, res.Missed)

	assert.Equal(t, "Bakker", doc.ValueOf("patientPersoonWrapper.persoon.achternaam"))
	assert.Equal(t, "Jansen", doc.ValueOf("patientPersoonWrapper.persoon.partnerachternaam"))
	assert.Equal(t, "JP", doc.ValueOf("patientPersoonWrapper.persoon.voorletters"))
	assert.Equal(t, "partner_eigen", doc.ValueOf("patientPersoonWrapper.persoon.naamgebruik"))
	assert.Equal(t, "03-05-1980", doc.ValueOf("patientPersoonWrapper.persoon.geboortedatum"))
	assert.Equal(t, "V", doc.ValueOf("patientPersoonWrapper.persoon.geslachtString"))
	assert.Equal(t, "jan@example.nl", doc.ValueOf("patientPersoonWrapper.persoon.email"))
	assert.Equal(t, "123456782", doc.ValueOf("bsn"))
	assert.Equal(t, "P", doc.ValueOf("patientPersoonWrapper.persoon.widDocSoort"))
	assert.Equal(t, "102", doc.ValueOf("praktijkMedewerker"))
}

func TestWriter_FillIDType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Paspoort", "P"},
		{"Rijbewijs", "R"},
		{"Identiteitskaart", "I"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ctx := context.Background()
			doc := testsupport.NewPatientForm(t)
			w := NewWriter(action.New(doc, inspect.DefaultKeywords()), Config{}, nil)

			res, err := w.Fill(ctx, fields.NewRecord(map[fields.Label]string{fields.IDType: tt.raw}))
			require.NoError(t, err)
			assert.Equal(t, 1, res.Written)
			assert.Equal(t, tt.want, doc.ValueOf("patientPersoonWrapper.persoon.widDocSoort"))
		})
	}
}

func TestWriter_FillUnknownIDTypeIsMissed(t *testing.T) {
	ctx := context.Background()
	doc := testsupport.NewPatientForm(t)
	w := NewWriter(action.New(doc, inspect.DefaultKeywords()), Config{}, nil)

	res, err := w.Fill(ctx, fields.NewRecord(map[fields.Label]string{fields.IDType: "Verblijfsdocument"}))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Written)
	assert.Equal(t, []fields.Label{fields.IDType}, res.Missed)
	assert.Empty(t, doc.ValueOf("patientPersoonWrapper.persoon.widDocSoort"))
}

func TestWriter_FillCountsMisses(t *testing.T) {
	ctx := context.Background()
	doc := testsupport.NewHost(t, testsupport.UploadFrameURL, testsupport.OffTargetScreen)
	exec := action.New(doc, inspect.DefaultKeywords())
	w := NewWriter(exec, Config{}, nil)
	assert.False(t, w.Ready(ctx))

	rec := fields.NewRecord(map[fields.Label]string{
		fields.Surname:   "Jansen",
		fields.Birthdate: "3 may 1980",
	})

	res, err := w.Fill(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Written)
	assert.Equal(t, []fields.Label{fields.Surname, fields.Birthdate}, res.Missed)
}

func TestWriter_FillCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := testsupport.NewPatientForm(t)
	w := NewWriter(action.New(doc, inspect.DefaultKeywords()), DefaultConfig(), nil)

	_, err := w.Fill(ctx, fields.NewRecord(map[fields.Label]string{fields.BSN: "1"}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, doc.ValueOf("bsn"))
}
