package simdoc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for document navigation and section editing.
var (
	ErrNoSim          = errors.New("simdoc: document has no sim mapping")
	ErrNoElement      = errors.New("simdoc: element index out of range")
	ErrSectionMissing = errors.New("simdoc: section markers not found in prompt")
)

// Prompt section markers. The thoughts section spans the text strictly
// between the thoughts marker and the memories marker.
const (
	thoughtsMarker = "Your thoughts as you join the call"
	memoriesMarker = "Your recent memories for context"

	thoughtsHeader = "Your thoughts as you join the call (in no particular order):\n"
)

// Document is a parsed simulation file. It retains the full YAML node
// tree so keys the editor does not understand survive a round trip.
type Document struct {
	root yaml.Node
}

// Load parses a simulation document from r.
func Load(r io.Reader) (*Document, error) {
	var d Document
	if err := yaml.NewDecoder(r).Decode(&d.root); err != nil {
		return nil, fmt.Errorf("decode sim document: %w", err)
	}
	return &d, nil
}

// LoadFile parses the simulation document at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sim document: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Save writes the document to w as YAML.
func (d *Document) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&d.root); err != nil {
		return fmt.Errorf("encode sim document: %w", err)
	}
	return enc.Close()
}

// SaveFile writes the document to path atomically: the content goes to
// a temp file in the same directory first, then replaces the original.
func (d *Document) SaveFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sim-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp sim file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := d.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp sim file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace sim file: %w", err)
	}
	return nil
}

// ElementPrompt returns the prompt string of the element at index.
func (d *Document) ElementPrompt(index int) (string, error) {
	node, err := d.promptNode(index)
	if err != nil {
		return "", err
	}
	return node.Value, nil
}

// SetElementPrompt replaces the prompt string of the element at index.
func (d *Document) SetElementPrompt(index int, prompt string) error {
	node, err := d.promptNode(index)
	if err != nil {
		return err
	}
	node.SetString(prompt)
	// Multi-line prompts read better in literal style.
	if strings.Contains(prompt, "\n") {
		node.Style = yaml.LiteralStyle
	}
	return nil
}

// Thoughts extracts the thoughts section of the element's prompt as a
// list of statements, one per non-empty line after the header.
func (d *Document) Thoughts(index int) ([]string, error) {
	prompt, err := d.ElementPrompt(index)
	if err != nil {
		return nil, err
	}

	start, end, err := sectionBounds(prompt)
	if err != nil {
		return nil, err
	}

	// Skip the header line itself; its wording after the marker varies
	// across documents.
	section := prompt[start:end]
	if nl := strings.Index(section, "\n"); nl >= 0 {
		section = section[nl+1:]
	} else {
		section = ""
	}

	var thoughts []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			thoughts = append(thoughts, line)
		}
	}
	return thoughts, nil
}

// SetThoughts replaces the thoughts section of the element's prompt
// with the given statements, leaving the surrounding sections intact.
func (d *Document) SetThoughts(index int, thoughts []string) error {
	prompt, err := d.ElementPrompt(index)
	if err != nil {
		return err
	}

	start, end, err := sectionBounds(prompt)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(thoughtsHeader)
	for _, thought := range thoughts {
		b.WriteString(thought)
		b.WriteString("\n\n")
	}

	return d.SetElementPrompt(index, prompt[:start]+b.String()+prompt[end:])
}

// sectionBounds locates the thoughts section: [start, end) spans from
// the thoughts marker up to the memories marker.
func sectionBounds(prompt string) (int, int, error) {
	start := strings.Index(prompt, thoughtsMarker)
	if start < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrSectionMissing, thoughtsMarker)
	}
	end := strings.Index(prompt, memoriesMarker)
	if end < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrSectionMissing, memoriesMarker)
	}
	if end < start {
		return 0, 0, fmt.Errorf("%w: sections out of order", ErrSectionMissing)
	}
	return start, end, nil
}

// promptNode navigates sim.elements[index].prompt in the node tree.
func (d *Document) promptNode(index int) (*yaml.Node, error) {
	root := &d.root
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, ErrNoSim
		}
		root = root.Content[0]
	}

	sim := mappingValue(root, "sim")
	if sim == nil {
		return nil, ErrNoSim
	}
	elements := mappingValue(sim, "elements")
	if elements == nil || elements.Kind != yaml.SequenceNode {
		return nil, ErrNoSim
	}
	if index < 0 || index >= len(elements.Content) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoElement, index, len(elements.Content))
	}

	prompt := mappingValue(elements.Content[index], "prompt")
	if prompt == nil {
		return nil, fmt.Errorf("%w: element %d has no prompt", ErrNoElement, index)
	}
	return prompt, nil
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
