package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/nickeddy/uamud/internal/game/dice"
)

// Dialogue holds speaker dialogue lines keyed by speaker. Keys are species
// kinds ("GHOUL") or NPC names ("Doc Hoff"); lookups are case-insensitive.
// The set is built once at startup and read-only afterwards.
type Dialogue struct {
	lines map[string][]string
}

// NewDialogue creates an empty dialogue set.
func NewDialogue() *Dialogue {
	return &Dialogue{lines: make(map[string][]string)}
}

// Add registers lines for a speaker, appending to any already present.
func (d *Dialogue) Add(speaker string, lines ...string) {
	key := strings.ToUpper(strings.TrimSpace(speaker))
	d.lines[key] = append(d.lines[key], lines...)
}

// Lines returns all lines for a speaker.
func (d *Dialogue) Lines(speaker string) ([]string, bool) {
	lines, ok := d.lines[strings.ToUpper(strings.TrimSpace(speaker))]
	return lines, ok
}

// Line picks a random line for a speaker.
func (d *Dialogue) Line(speaker string, rng dice.Source) (string, bool) {
	lines, ok := d.Lines(speaker)
	if !ok || len(lines) == 0 {
		return "", false
	}
	return lines[rng.Intn(len(lines))], true
}

// Speakers returns the known speaker keys, sorted.
func (d *Dialogue) Speakers() []string {
	out := make([]string, 0, len(d.lines))
	for key := range d.lines {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// LoadDialogueDir executes every .lua file in dir in a sandboxed VM and
// collects the `dialogue` tables they declare. Each file sets
//
//	dialogue = {
//	  GHOUL = { "Eerrrerrrrrr", "*groan*" },
//	  ["Doc Hoff"] = { "Here's what I've got for sale, partner!" },
//	}
//
// A missing directory is not an error: the built-in species lines cover
// every speaker, so dialogue files are purely additive.
func LoadDialogueDir(dir string, logger *zap.Logger) (*Dialogue, error) {
	d := NewDialogue()
	if dir == "" {
		return d, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no dialogue directory, using built-in lines",
				zap.String("dir", dir),
			)
			return d, nil
		}
		return nil, fmt.Errorf("reading dialogue directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := d.loadFile(path); err != nil {
			return nil, fmt.Errorf("loading dialogue file %s: %w", entry.Name(), err)
		}
		logger.Info("loaded dialogue file", zap.String("file", entry.Name()))
	}
	return d, nil
}

func (d *Dialogue) loadFile(path string) error {
	L := NewSandboxedState(0)
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("executing script: %w", err)
	}

	table, ok := L.GetGlobal("dialogue").(*lua.LTable)
	if !ok {
		return fmt.Errorf("script did not declare a dialogue table")
	}

	var bad error
	table.ForEach(func(key, value lua.LValue) {
		speaker, ok := key.(lua.LString)
		if !ok {
			bad = fmt.Errorf("dialogue key %v is not a string", key)
			return
		}
		lines, ok := value.(*lua.LTable)
		if !ok {
			bad = fmt.Errorf("dialogue for %q is not a table of lines", speaker)
			return
		}
		lines.ForEach(func(_, line lua.LValue) {
			if s, ok := line.(lua.LString); ok {
				d.Add(string(speaker), string(s))
			} else {
				bad = fmt.Errorf("dialogue line for %q is not a string", speaker)
			}
		})
	})
	return bad
}
