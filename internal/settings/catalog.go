package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog is the process-wide, mutex-guarded settings store. Each concern persists to its own YAML file under
// root, mirroring the teacher's one-file-per-concern config layout.
type Catalog struct {
	root string

	mu             sync.RWMutex
	dictionaries   map[string]Dictionary
	groups         map[string]Group
	junction       map[string]map[string]bool // dictionary_id -> group names
	history        []string
	historySize    int
	suggestionCap  int
	suggestionMode string
	patches        map[string][]HTMLPatch
}

// HTMLPatch is one find/replace rule applied verbatim to a dictionary's
// rendered article HTML, after markup conversion and before the response
// is returned. Patches are a per-dictionary_id pure HTML -> HTML function,
// expressed as an ordered list of literal substitutions rather than a
// compiled closure so they can round-trip through YAML.
type HTMLPatch struct {
	Find    string `yaml:"find"`
	Replace string `yaml:"replace"`
}

// SuggestionMode values. RightSide only matches candidates beginning with
// the query (fast); BothSides additionally includes candidates containing
// the query anywhere, via the n-gram expansion index (slower).
const (
	SuggestionModeRightSide = "right-side"
	SuggestionModeBothSides = "both-sides"
)

type dictionariesFile struct {
	Dictionaries []Dictionary `yaml:"dictionaries"`
}

type groupsFile struct {
	Groups []Group `yaml:"groups"`
}

type junctionFile struct {
	// Junction maps a dictionary_id to the set of group names it belongs to.
	Junction map[string][]string `yaml:"junction"`
}

type historyFile struct {
	History []string `yaml:"history"`
}

type miscFile struct {
	HistorySize    int                    `yaml:"history_size"`
	SuggestionCap  int                    `yaml:"suggestion_cap"`
	SuggestionMode string                 `yaml:"suggestion_mode"`
	Patches        map[string][]HTMLPatch `yaml:"patches"`
}

const (
	defaultHistorySize   = 50
	defaultSuggestionCap = 10
)

// Open loads (or initializes) the catalog rooted at dir, creating it if
// absent.
func Open(dir string) (*Catalog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("settings: create root: %w", err)
	}
	c := &Catalog{
		root:           dir,
		dictionaries:   map[string]Dictionary{},
		groups:         map[string]Group{},
		junction:       map[string]map[string]bool{},
		historySize:    defaultHistorySize,
		suggestionCap:  defaultSuggestionCap,
		suggestionMode: SuggestionModeRightSide,
		patches:        map[string][]HTMLPatch{},
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) path(name string) string { return filepath.Join(c.root, name) }

func readYAML(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Catalog) load() error {
	var df dictionariesFile
	if _, err := readYAML(c.path("dictionaries.yaml"), &df); err != nil {
		return err
	}
	for _, d := range df.Dictionaries {
		c.dictionaries[d.ID] = d
	}

	var gf groupsFile
	if _, err := readYAML(c.path("groups.yaml"), &gf); err != nil {
		return err
	}
	for _, g := range gf.Groups {
		c.groups[g.Name] = g
	}

	var jf junctionFile
	if _, err := readYAML(c.path("junction_table.yaml"), &jf); err != nil {
		return err
	}
	for dictID, groupNames := range jf.Junction {
		set := map[string]bool{}
		for _, n := range groupNames {
			set[n] = true
		}
		c.junction[dictID] = set
	}

	var hf historyFile
	if _, err := readYAML(c.path("history.yaml"), &hf); err != nil {
		return err
	}
	c.history = hf.History

	var mf miscFile
	ok, err := readYAML(c.path("misc.yaml"), &mf)
	if err != nil {
		return err
	}
	if ok {
		if mf.HistorySize > 0 {
			c.historySize = mf.HistorySize
		}
		if mf.SuggestionCap > 0 {
			c.suggestionCap = mf.SuggestionCap
		}
		if mf.SuggestionMode != "" {
			c.suggestionMode = mf.SuggestionMode
		}
		if mf.Patches != nil {
			c.patches = mf.Patches
		}
	}
	return nil
}

func (c *Catalog) saveMisc() error {
	return writeYAML(c.path("misc.yaml"), miscFile{
		HistorySize:    c.historySize,
		SuggestionCap:  c.suggestionCap,
		SuggestionMode: c.suggestionMode,
		Patches:        c.patches,
	})
}

func (c *Catalog) saveDictionaries() error {
	out := make([]Dictionary, 0, len(c.dictionaries))
	for _, d := range c.dictionaries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return writeYAML(c.path("dictionaries.yaml"), dictionariesFile{Dictionaries: out})
}

func (c *Catalog) saveGroups() error {
	out := make([]Group, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return writeYAML(c.path("groups.yaml"), groupsFile{Groups: out})
}

func (c *Catalog) saveJunction() error {
	out := make(map[string][]string, len(c.junction))
	for dictID, set := range c.junction {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		out[dictID] = names
	}
	return writeYAML(c.path("junction_table.yaml"), junctionFile{Junction: out})
}

func (c *Catalog) saveHistory() error {
	return writeYAML(c.path("history.yaml"), historyFile{History: c.history})
}

// Dictionaries returns a catalog-ordered (by ID) snapshot of all known
// dictionaries.
func (c *Catalog) Dictionaries() []Dictionary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Dictionary, 0, len(c.dictionaries))
	for _, d := range c.dictionaries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dictionary looks up a single dictionary by id.
func (c *Catalog) Dictionary(id string) (Dictionary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.dictionaries[id]
	return d, ok
}

// Group looks up a group by name.
func (c *Catalog) Group(name string) (Group, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.groups[name]
	return g, ok
}

// GroupMembers returns the catalog-order dictionary IDs belonging to
// group name: membership order is deterministic by catalog order, not by
// insertion order into the junction.
func (c *Catalog) GroupMembers(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ids []string
	for id, groups := range c.junction {
		if groups[name] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AddDictionary inserts or replaces a dictionary and persists the change.
func (c *Catalog) AddDictionary(d Dictionary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dictionaries[d.ID] = d
	return c.saveDictionaries()
}

// RemoveDictionary deletes a dictionary and its junction edges.
func (c *Catalog) RemoveDictionary(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dictionaries, id)
	delete(c.junction, id)
	if err := c.saveDictionaries(); err != nil {
		return err
	}
	return c.saveJunction()
}

// Groups returns a name-ordered snapshot of every known group.
func (c *Catalog) Groups() []Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Group, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpsertGroup inserts or replaces a group definition.
func (c *Catalog) UpsertGroup(g Group) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[g.Name] = g
	return c.saveGroups()
}

// RemoveGroup deletes a group definition and its junction memberships.
func (c *Catalog) RemoveGroup(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.groups, name)
	for dictID, set := range c.junction {
		delete(set, name)
		c.junction[dictID] = set
	}
	if err := c.saveGroups(); err != nil {
		return err
	}
	return c.saveJunction()
}

// RemoveJunction removes dictionaryID from groupName's membership set.
func (c *Catalog) RemoveJunction(dictionaryID, groupName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if set, ok := c.junction[dictionaryID]; ok {
		delete(set, groupName)
	}
	return c.saveJunction()
}

// Junction adds dictionaryID to groupName's membership set.
func (c *Catalog) Junction(dictionaryID, groupName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.junction[dictionaryID]
	if !ok {
		set = map[string]bool{}
		c.junction[dictionaryID] = set
	}
	set[groupName] = true
	return c.saveJunction()
}

// SuggestionCap returns the configured suggestions cap N.
func (c *Catalog) SuggestionCap() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.suggestionCap
}

// SetSuggestionCap updates and persists the suggestions cap N.
func (c *Catalog) SetSuggestionCap(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestionCap = n
	return c.saveMisc()
}

// AppendHistory records query k, most-recent-first, deduplicating and
// capping at history_size.
func (c *Catalog) AppendHistory(k string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	filtered := c.history[:0:0]
	for _, h := range c.history {
		if h != k {
			filtered = append(filtered, h)
		}
	}
	c.history = append([]string{k}, filtered...)
	if len(c.history) > c.historySize {
		c.history = c.history[:c.historySize]
	}
	return c.saveHistory()
}

// History returns the current most-recent-first history snapshot.
func (c *Catalog) History() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.history))
	copy(out, c.history)
	return out
}

// SuggestionMode returns the configured suggestions strategy, defaulting
// to SuggestionModeRightSide.
func (c *Catalog) SuggestionMode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.suggestionMode
}

// SetSuggestionMode updates and persists the suggestions strategy.
func (c *Catalog) SetSuggestionMode(mode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestionMode = mode
	return c.saveMisc()
}

// Patches returns the ordered HTML find/replace rules registered for
// dictionaryID, or nil if none are configured.
func (c *Catalog) Patches(dictionaryID string) []HTMLPatch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]HTMLPatch(nil), c.patches[dictionaryID]...)
}

// SetPatches replaces the HTML find/replace rules for dictionaryID and
// persists the change.
func (c *Catalog) SetPatches(dictionaryID string, patches []HTMLPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(patches) == 0 {
		delete(c.patches, dictionaryID)
	} else {
		c.patches[dictionaryID] = patches
	}
	return c.saveMisc()
}
