// Package locale holds the message catalog driving both outbound copy and
// inbound button matching.
//
// The bot matches inbound text against catalog keys, not hardcoded literals,
// so swapping the catalog (another language, another tone) cannot silently
// break recognized actions. Catalogs are validated against a CUE schema on
// load: every required key present and non-empty.
package locale

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Key names a message the bot emits.
type Key string

const (
	KeyGreeting       Key = "greeting"
	KeyNotMember      Key = "not_member"
	KeyWritePrompt    Key = "write_prompt"
	KeyRewritePrompt  Key = "rewrite_prompt"
	KeyViewHeader     Key = "view_header"
	KeyLetterAccepted Key = "letter_accepted"
	KeyTooLong        Key = "too_long" // format args: actual length, limit
	KeyUseButtons     Key = "use_buttons"
	KeySaveFailed     Key = "save_failed"
	KeyNoLetter       Key = "no_letter"
)

// Action names a selectable button independent of its display text.
type Action string

const (
	ActionWrite   Action = "write"
	ActionView    Action = "view"
	ActionRewrite Action = "rewrite"
)

// rawCatalog is the YAML shape of a catalog file.
type rawCatalog struct {
	Messages map[string]string `yaml:"messages"`
	Buttons  map[string]string `yaml:"buttons"`
}

// Catalog maps message keys to display text and display text back to actions.
type Catalog struct {
	messages map[Key]string
	buttons  map[Action]string
	actions  map[string]Action // normalized button text -> action
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := loadBytes(defaultCatalogYAML)
	if err != nil {
		// The embedded catalog is validated by tests; reaching here means
		// the binary itself is broken.
		panic(fmt.Sprintf("locale: embedded catalog invalid: %v", err))
	}
	return c
}

// Load reads and validates a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("locale: read catalog: %w", err)
	}
	c, err := loadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("locale: catalog %s: %w", path, err)
	}
	return c, nil
}

func loadBytes(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if err := validate(raw); err != nil {
		return nil, err
	}

	c := &Catalog{
		messages: make(map[Key]string, len(raw.Messages)),
		buttons:  make(map[Action]string, len(raw.Buttons)),
		actions:  make(map[string]Action, len(raw.Buttons)),
	}
	for k, v := range raw.Messages {
		c.messages[Key(k)] = v
	}
	for k, v := range raw.Buttons {
		action := Action(k)
		c.buttons[action] = v
		c.actions[normalize(v)] = action
	}

	return c, nil
}

// Text returns the display text for a message key.
// Validation guarantees every known key is present; an unknown key returns
// the key itself so a bad call site is visible rather than silent.
func (c *Catalog) Text(key Key) string {
	if text, ok := c.messages[key]; ok {
		return text
	}
	return string(key)
}

// Button returns the display label for an action.
func (c *Catalog) Button(a Action) string {
	return c.buttons[a]
}

// MatchAction resolves inbound text to a button action, if any.
// Matching is exact after trimming and NFC normalization, so visually
// identical text composed differently still matches.
func (c *Catalog) MatchAction(text string) (Action, bool) {
	a, ok := c.actions[normalize(text)]
	return a, ok
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
