package workflow

import (
	"fmt"
	"time"
)

// Delays are the settle delays inserted after an action to let the host
// finish rendering. The host gives no completion signal.
type Delays struct {
	Navigate     time.Duration `yaml:"navigate" json:"navigate"`
	Upload       time.Duration `yaml:"upload" json:"upload"`
	Advance      time.Duration `yaml:"advance" json:"advance"`
	Description  time.Duration `yaml:"description" json:"description"`
	Import       time.Duration `yaml:"import" json:"import"`
	ReferralForm time.Duration `yaml:"referral_form" json:"referral_form"`
	ReferralOpen time.Duration `yaml:"referral_open" json:"referral_open"`
	Shortcut     time.Duration `yaml:"shortcut" json:"shortcut"`
}

// DefaultDelays returns delays tuned for the production host.
func DefaultDelays() Delays {
	return Delays{
		Navigate:     1500 * time.Millisecond,
		Upload:       500 * time.Millisecond,
		Advance:      2 * time.Second,
		Description:  1500 * time.Millisecond,
		Import:       500 * time.Millisecond,
		ReferralForm: time.Second,
		ReferralOpen: 1500 * time.Millisecond,
		Shortcut:     time.Second,
	}
}

// Validate checks that every delay is positive.
func (d Delays) Validate() error {
	named := []struct {
		name  string
		value time.Duration
	}{
		{"navigate", d.Navigate},
		{"upload", d.Upload},
		{"advance", d.Advance},
		{"description", d.Description},
		{"import", d.Import},
		{"referral_form", d.ReferralForm},
		{"referral_open", d.ReferralOpen},
		{"shortcut", d.Shortcut},
	}
	for _, n := range named {
		if n.value <= 0 {
			return fmt.Errorf("delay %s must be positive, got %s", n.name, n.value)
		}
	}
	return nil
}

// Referral names the controls of the referral flow.
type Referral struct {
	// ActionLabel is the visible text of the journal action opening the form.
	ActionLabel string `yaml:"action_label" json:"action_label"`

	// CodeField is the id of the specialism code input.
	CodeField string `yaml:"code_field" json:"code_field"`

	// ViaButton is the id of the button handing the referral to the
	// referral service.
	ViaButton string `yaml:"via_button" json:"via_button"`

	// FallbackButton is clicked when no target URL is given.
	FallbackButton string `yaml:"fallback_button" json:"fallback_button"`
}

// DefaultReferral returns the referral controls of the host.
func DefaultReferral() Referral {
	return Referral{
		ActionLabel:    "Verwijzen",
		CodeField:      "specMnem",
		ViaButton:      "action_via zorgDomein",
		FallbackButton: "Script_ZorgDomein",
	}
}

// Shortcut is a two-step navigation: a main menu entry, then a button in
// the content frame.
type Shortcut struct {
	Name   string `yaml:"name" json:"name"`
	Title  string `yaml:"title" json:"title"`
	Menu   string `yaml:"menu" json:"menu"`
	Button string `yaml:"button" json:"button"`
}

// DefaultShortcuts returns the shortcuts of the patient menu.
func DefaultShortcuts() []Shortcut {
	return []Shortcut{
		{
			Name:   "medovd-import",
			Title:  "MEDOVD importeren",
			Menu:   "MainMenu-Patiënt-Zoeken",
			Button: "action_medOvdImporteren",
		},
		{
			Name:   "inschrijven",
			Title:  "Nieuwe patiënt inschrijven",
			Menu:   "MainMenu-Patiënt-Zoeken",
			Button: "action_Nieuwe patient inschrijven",
		},
	}
}

// Config configures a Driver.
type Config struct {
	Delays    Delays     `yaml:"delays" json:"delays"`
	Referral  Referral   `yaml:"referral" json:"referral"`
	Shortcuts []Shortcut `yaml:"shortcuts" json:"shortcuts"`

	// StepTimeout bounds every host call made by one step.
	StepTimeout time.Duration `yaml:"step_timeout" json:"step_timeout"`
}

// DefaultConfig returns the driver configuration for the production host.
func DefaultConfig() Config {
	return Config{
		Delays:      DefaultDelays(),
		Referral:    DefaultReferral(),
		Shortcuts:   DefaultShortcuts(),
		StepTimeout: 10 * time.Second,
	}
}

// Shortcut returns the shortcut with the given name.
func (c Config) Shortcut(name string) (Shortcut, bool) {
	for _, s := range c.Shortcuts {
		if s.Name == name {
			return s, true
		}
	}
	return Shortcut{}, false
}
