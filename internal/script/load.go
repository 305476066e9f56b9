package script

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError reports everything wrong with a script document.
// All problems are collected before returning so authors can fix a
// document in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid script: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid script: %d problems:\n  %s",
		len(e.Problems), strings.Join(e.Problems, "\n  "))
}

// Parse decodes a YAML or JSON script document, checks it against the
// embedded CUE schema, and runs cross-reference checks. YAML is a
// superset of JSON, so one decoder serves both.
func Parse(data []byte) (*Script, error) {
	// Raw decode first: schema validation sees the document as
	// authored, including fields the typed model would drop.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.checkReferences(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a script document from disk.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// validateSchema unifies the raw document with the #Script definition.
func validateSchema(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile script schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Script"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup script schema: %w", err)
	}
	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode script document: %w", err)
	}
	unified := def.Unify(doc)
	if err := unified.Validate(); err != nil {
		verr := &ValidationError{}
		for _, e := range cueerrors.Errors(err) {
			verr.Problems = append(verr.Problems, e.Error())
		}
		return verr
	}
	return nil
}

// checkReferences verifies name uniqueness and that triggers reference
// scenes that exist. Condition ops and action names are checked at
// evaluation time against the registry, not here, since the vocabulary
// is registry-driven.
func (s *Script) checkReferences() error {
	verr := &ValidationError{}

	seenScenes := map[string]bool{}
	for _, scene := range s.Scenes {
		if seenScenes[scene.Name] {
			verr.Problems = append(verr.Problems,
				fmt.Sprintf("duplicate scene name %q", scene.Name))
		}
		seenScenes[scene.Name] = true
	}

	seenTriggers := map[string]bool{}
	for _, trigger := range s.Triggers {
		if seenTriggers[trigger.Name] {
			verr.Problems = append(verr.Problems,
				fmt.Sprintf("duplicate trigger name %q", trigger.Name))
		}
		seenTriggers[trigger.Name] = true

		if trigger.Scene != "" && !seenScenes[trigger.Scene] {
			verr.Problems = append(verr.Problems,
				fmt.Sprintf("trigger %q references unknown scene %q",
					trigger.Name, trigger.Scene))
		}
		if trigger.Event != nil && len(trigger.Events) > 0 {
			verr.Problems = append(verr.Problems,
				fmt.Sprintf("trigger %q declares both event and events",
					trigger.Name))
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}
