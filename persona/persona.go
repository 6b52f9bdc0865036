package persona

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/SkiLark1/galobalist-jr/errors"
	"github.com/SkiLark1/galobalist-jr/logging"
)

// Fallback is the persona that always resolves, even when the active
// persona name is stale or the requested name is unknown.
const Fallback = "cheerful"

// defaultTemplates is the built-in catalog seeded on first run.
var defaultTemplates = map[string]string{
	"cheerful": "You are a relentlessly upbeat chat companion. You find something " +
		"delightful in every topic, cheer people on, and never sulk. Keep replies " +
		"short, warm, and conversational.",
	"snarky": "You are a dry, sarcastic chat companion. You tease affectionately, " +
		"deploy deadpan one-liners, and roll your eyes at obvious statements, but " +
		"you are never actually mean. Keep replies short and sharp.",
	"scholar": "You are a bookish, slightly long-winded chat companion. You relate " +
		"everything to history, etymology, or an obscure study you once read. " +
		"Footnote-brained but friendly.",
	"gremlin": "You are a chaotic gremlin of a chat companion. You latch onto the " +
		"weirdest detail of any message, escalate bits, and propose terrible ideas " +
		"with total confidence. Harmless mischief only.",
}

// stateDocument is the persisted active-persona record.
type stateDocument struct {
	Persona string `json:"persona"`
}

// Config configures the persona catalog.
type Config struct {
	// CatalogPath is the JSON document mapping persona names to templates.
	CatalogPath string

	// StatePath is the JSON document recording the active persona.
	StatePath string

	// Rand drives the first-boot persona pick. nil means time-seeded.
	Rand *rand.Rand

	// Logger for persona events. nil disables logging.
	Logger *logging.Logger
}

// Catalog holds the persona templates and the process-wide active persona.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]string
	active    string

	catalogPath string
	statePath   string
	logger      *logging.Logger
}

// New loads (or first-boot seeds) the catalog and active-persona state.
// An existing catalog file is loaded verbatim and never overwritten by
// the built-in defaults; corrupt documents are reset and logged loudly.
func New(cfg Config) (*Catalog, error) {
	if cfg.CatalogPath == "" || cfg.StatePath == "" {
		return nil, errors.New(errors.CodeInvalidInput, "catalog and state paths are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
		logger.SetLevel(logging.LevelError)
	}
	logger = logger.WithComponent("persona")

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c := &Catalog{
		templates:   make(map[string]string),
		catalogPath: cfg.CatalogPath,
		statePath:   cfg.StatePath,
		logger:      logger,
	}

	if err := c.loadCatalog(); err != nil {
		return nil, err
	}
	if err := c.loadState(rng); err != nil {
		return nil, err
	}

	return c, nil
}

// loadCatalog reads the catalog document, seeding the built-in defaults
// only when the file is missing or empty.
func (c *Catalog) loadCatalog() error {
	data, err := os.ReadFile(c.catalogPath)
	if os.IsNotExist(err) || (err == nil && len(data) == 0) {
		for name, tpl := range defaultTemplates {
			c.templates[name] = tpl
		}
		if err := writeJSON(c.catalogPath, c.templates); err != nil {
			return errors.Storage(err, "seeding persona catalog")
		}
		return nil
	}
	if err != nil {
		return errors.Storage(err, "reading persona catalog")
	}

	if err := json.Unmarshal(data, &c.templates); err != nil || len(c.templates) == 0 {
		if err == nil {
			err = errors.New(errors.CodeCorruptState, "persona catalog is empty")
		}
		c.logger.StorageReset(c.catalogPath, err)
		c.templates = make(map[string]string)
		for name, tpl := range defaultTemplates {
			c.templates[name] = tpl
		}
		if werr := writeJSON(c.catalogPath, c.templates); werr != nil {
			return errors.Storage(werr, "resetting persona catalog")
		}
	}

	// The fallback must always resolve, whatever the operator did to the file.
	if _, ok := c.templates[Fallback]; !ok {
		c.templates[Fallback] = defaultTemplates[Fallback]
	}
	return nil
}

// loadState reads the active-persona record, picking one catalog entry
// uniformly at random on first boot.
func (c *Catalog) loadState(rng *rand.Rand) error {
	data, err := os.ReadFile(c.statePath)
	if os.IsNotExist(err) || (err == nil && len(data) == 0) {
		c.active = c.randomName(rng)
		if err := writeJSON(c.statePath, stateDocument{Persona: c.active}); err != nil {
			return errors.Storage(err, "seeding persona state")
		}
		return nil
	}
	if err != nil {
		return errors.Storage(err, "reading persona state")
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil || doc.Persona == "" {
		if err == nil {
			err = errors.New(errors.CodeCorruptState, "persona state names no persona")
		}
		c.logger.StorageReset(c.statePath, err)
		c.active = c.randomName(rng)
		if werr := writeJSON(c.statePath, stateDocument{Persona: c.active}); werr != nil {
			return errors.Storage(werr, "resetting persona state")
		}
		return nil
	}

	// A stale name is kept as-is; Template falls back when it no longer
	// resolves.
	c.active = doc.Persona
	return nil
}

// randomName picks one catalog entry uniformly at random.
func (c *Catalog) randomName(rng *rand.Rand) string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[rng.Intn(len(names))]
}

// Names returns all known persona names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns the template for name, or the fallback template when
// name is unknown. Never fails.
func (c *Catalog) Template(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if tpl, ok := c.templates[name]; ok {
		return tpl
	}
	return c.templates[Fallback]
}

// Active returns the current active persona name.
func (c *Catalog) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// ActiveTemplate returns the template for the active persona, falling
// back when the recorded name has gone stale.
func (c *Catalog) ActiveTemplate() string {
	return c.Template(c.Active())
}

// SetActive durably switches the active persona. An unknown name is
// rejected with CodeUnknownPersona and leaves the state unchanged.
func (c *Catalog) SetActive(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.templates[name]; !ok {
		names := make([]string, 0, len(c.templates))
		for n := range c.templates {
			names = append(names, n)
		}
		sort.Strings(names)
		return errors.UnknownPersona(name, names)
	}

	if err := writeJSON(c.statePath, stateDocument{Persona: name}); err != nil {
		return errors.Storage(err, "saving persona state")
	}

	c.logger.PersonaChanged(c.active, name)
	c.active = name
	return nil
}

// writeJSON persists a document atomically via temp file + rename.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".persona-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
