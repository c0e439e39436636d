// Package volume holds the catalog of regulation volumes: which source pages
// each one spans and which instructions are run against its text.
package volume

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/regdigest/internal/config"
	"github.com/dgallion1/regdigest/internal/pdfpages"
)

const (
	PlanStandard = "standard"
	PlanSummary  = "summary"
)

// ErrUnknownVolume is returned by Lookup for IDs not in the catalog.
var ErrUnknownVolume = errors.New("unknown volume")

// Prompt is one instruction and the output topic its answers are written to.
type Prompt struct {
	ID          string `json:"id"`
	Topic       string `json:"topic"`
	Instruction string `json:"instruction"`
}

// Volume is a contiguous page range of the source regulation together with
// the prompts run against it.
type Volume struct {
	ID    string             `json:"id"`
	Title string             `json:"title"`
	Pages pdfpages.PageRange `json:"pages"`
	Plan  string             `json:"plan"`

	// Shared prompts run on every fragment the dispatch loop reaches.
	Shared []Prompt `json:"shared"`
	// Answers runs once, on the first fragment. Nil for the summary plan.
	Answers *Prompt `json:"answers,omitempty"`

	// Zero values defer to the process configuration.
	ChunkSize    int    `json:"chunk_size,omitempty"`
	DispatchMode string `json:"dispatch_mode,omitempty"`
}

// Prompts returns the shared prompts followed by the answers prompt.
func (v Volume) Prompts() []Prompt {
	out := make([]Prompt, 0, len(v.Shared)+1)
	out = append(out, v.Shared...)
	if v.Answers != nil {
		out = append(out, *v.Answers)
	}
	return out
}

// Catalog is an ordered set of volumes.
type Catalog struct {
	volumes []Volume
	byID    map[string]int
	summary Prompt
}

// Default returns the eleven volumes of the 2020 joint regulation.
func Default() *Catalog {
	ranges := []pdfpages.PageRange{
		{Start: 52, End: 67},
		{Start: 68, End: 171},
		{Start: 172, End: 257},
		{Start: 258, End: 319},
		{Start: 320, End: 357},
		{Start: 358, End: 538},
		{Start: 540, End: 587},
		{Start: 588, End: 657},
		{Start: 658, End: 736},
		{Start: 737, End: 783},
		{Start: 784, End: 814},
	}

	c := &Catalog{byID: make(map[string]int), summary: summaryPrompt}
	for i, r := range ranges {
		id := "Tomo_" + strconv.Itoa(i+1)
		c.put(standardVolume(id, "Tomo "+strconv.Itoa(i+1), r, volumeQuestions[id]))
	}
	return c
}

func standardVolume(id, title string, r pdfpages.PageRange, questions string) Volume {
	shared := make([]Prompt, len(sharedPrompts))
	copy(shared, sharedPrompts)
	return Volume{
		ID:      id,
		Title:   title,
		Pages:   r,
		Plan:    PlanStandard,
		Shared:  shared,
		Answers: &Prompt{ID: "prompt_6", Topic: answersTopic, Instruction: questions},
	}
}

func (c *Catalog) put(v Volume) {
	if i, ok := c.byID[v.ID]; ok {
		c.volumes[i] = v
		return
	}
	c.byID[v.ID] = len(c.volumes)
	c.volumes = append(c.volumes, v)
}

// List returns all volumes in catalog order.
func (c *Catalog) List() []Volume {
	out := make([]Volume, len(c.volumes))
	copy(out, c.volumes)
	return out
}

// Lookup finds a volume by ID. The match is case-insensitive.
func (c *Catalog) Lookup(id string) (Volume, error) {
	if i, ok := c.byID[id]; ok {
		return c.volumes[i], nil
	}
	for _, v := range c.volumes {
		if strings.EqualFold(v.ID, id) {
			return v, nil
		}
	}
	return Volume{}, fmt.Errorf("%w: %q", ErrUnknownVolume, id)
}

// Summary returns v rewritten as the single-prompt summary plan: one shared
// instruction over every fragment, no answers prompt.
func (c *Catalog) Summary(v Volume) Volume {
	v.Plan = PlanSummary
	v.Shared = []Prompt{c.summary}
	v.Answers = nil
	v.ChunkSize = 0
	v.DispatchMode = config.DispatchAllFragments
	return v
}

type fileCatalog struct {
	SummaryPrompt string       `yaml:"summary_prompt"`
	Volumes       []fileVolume `yaml:"volumes"`
}

type fileVolume struct {
	ID           string              `yaml:"id"`
	Title        string              `yaml:"title"`
	Pages        *pdfpages.PageRange `yaml:"pages"`
	Questions    string              `yaml:"questions"`
	ChunkSize    int                 `yaml:"chunk_size"`
	DispatchMode string              `yaml:"dispatch_mode"`
}

// LoadFile reads a YAML catalog and merges it over Default. Entries with a
// known ID override the fields they set; new IDs must give pages and
// questions.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	c := Default()
	if fc.SummaryPrompt != "" {
		c.summary.Instruction = fc.SummaryPrompt
	}
	for i, fv := range fc.Volumes {
		if err := c.merge(fv); err != nil {
			return nil, fmt.Errorf("catalog %s: volume %d: %w", path, i, err)
		}
	}
	return c, nil
}

func (c *Catalog) merge(fv fileVolume) error {
	if fv.ID == "" {
		return errors.New("id is required")
	}
	switch fv.DispatchMode {
	case "", config.DispatchFirstFragment, config.DispatchAllFragments:
	default:
		return fmt.Errorf("%s: invalid dispatch_mode %q", fv.ID, fv.DispatchMode)
	}
	if fv.ChunkSize < 0 {
		return fmt.Errorf("%s: chunk_size must not be negative", fv.ID)
	}

	v, err := c.Lookup(fv.ID)
	if err != nil {
		if fv.Pages == nil || fv.Questions == "" {
			return fmt.Errorf("%s: new volumes need pages and questions", fv.ID)
		}
		title := fv.Title
		if title == "" {
			title = fv.ID
		}
		v = standardVolume(fv.ID, title, *fv.Pages, fv.Questions)
	}

	if fv.Title != "" {
		v.Title = fv.Title
	}
	if fv.Pages != nil {
		v.Pages = *fv.Pages
	}
	if fv.Questions != "" {
		v.Answers = &Prompt{ID: "prompt_6", Topic: answersTopic, Instruction: fv.Questions}
	}
	if fv.ChunkSize > 0 {
		v.ChunkSize = fv.ChunkSize
	}
	if fv.DispatchMode != "" {
		v.DispatchMode = fv.DispatchMode
	}
	if v.Pages.Start < 0 || v.Pages.Start > v.Pages.End {
		return fmt.Errorf("%s: invalid page range %s", v.ID, v.Pages)
	}
	c.put(v)
	return nil
}
