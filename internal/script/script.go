package script

// Script is one authored experience: the full static document the
// kernel evaluates triggers against. Decoded once, never mutated.
type Script struct {
	Scenes   []Scene   `yaml:"scenes,omitempty" json:"scenes,omitempty"`
	Roles    []Role    `yaml:"roles,omitempty" json:"roles,omitempty"`
	Pages    []Page    `yaml:"pages,omitempty" json:"pages,omitempty"`
	Cues     []Cue     `yaml:"cues,omitempty" json:"cues,omitempty"`
	Triggers []Trigger `yaml:"triggers,omitempty" json:"triggers,omitempty"`
}

// Scene groups triggers and pages. A trip is in exactly one current
// scene at a time; global scenes are active regardless of the current
// scene as long as their active_if guard passes.
type Scene struct {
	Name     string    `yaml:"name" json:"name"`
	Title    string    `yaml:"title,omitempty" json:"title,omitempty"`
	Global   bool      `yaml:"global,omitempty" json:"global,omitempty"`
	ActiveIf *IfClause `yaml:"active_if,omitempty" json:"active_if,omitempty"`
}

// Role is a participant slot in the script. Email is used by the
// send_email action; Interface selects which pages apply to the role.
type Role struct {
	Name      string `yaml:"name" json:"name"`
	Title     string `yaml:"title,omitempty" json:"title,omitempty"`
	Email     string `yaml:"email,omitempty" json:"email,omitempty"`
	Interface string `yaml:"interface,omitempty" json:"interface,omitempty"`
}

// Page is a screen shown to a role while its scene is current.
type Page struct {
	Name      string `yaml:"name" json:"name"`
	Scene     string `yaml:"scene,omitempty" json:"scene,omitempty"`
	Interface string `yaml:"interface,omitempty" json:"interface,omitempty"`
	Title     string `yaml:"title,omitempty" json:"title,omitempty"`
}

// Cue is a named signal an operator or action can raise.
type Cue struct {
	Name  string `yaml:"name" json:"name"`
	Scene string `yaml:"scene,omitempty" json:"scene,omitempty"`
}

// Trigger is a named rule: an event pattern plus guard conditions plus
// an action tree. Repeatable defaults to true; a non-repeatable trigger
// fires at most once per trip, tracked via the trip history.
type Trigger struct {
	Name       string         `yaml:"name" json:"name"`
	Scene      string         `yaml:"scene,omitempty" json:"scene,omitempty"`
	Event      *EventSpec     `yaml:"event,omitempty" json:"event,omitempty"`
	Events     []EventSpec    `yaml:"events,omitempty" json:"events,omitempty"`
	ActiveIf   *IfClause      `yaml:"active_if,omitempty" json:"active_if,omitempty"`
	Repeatable *bool          `yaml:"repeatable,omitempty" json:"repeatable,omitempty"`
	Actions    []ActionClause `yaml:"actions,omitempty" json:"actions,omitempty"`
}

// IsRepeatable reports whether the trigger may fire more than once.
// Absent means repeatable.
func (t *Trigger) IsRepeatable() bool {
	return t.Repeatable == nil || *t.Repeatable
}

// EventSpecs returns the trigger's event patterns, normalizing the
// single-event and event-list forms.
func (t *Trigger) EventSpecs() []EventSpec {
	if t.Event != nil {
		return []EventSpec{*t.Event}
	}
	return t.Events
}

// EventSpecForType returns the first event pattern declared for the
// given event type, or nil if the trigger does not listen for it.
func (t *Trigger) EventSpecForType(eventType string) *EventSpec {
	specs := t.EventSpecs()
	for i := range specs {
		if specs[i].Type == eventType {
			return &specs[i]
		}
	}
	return nil
}

// SceneNamed returns the scene with the given name, or nil.
func (s *Script) SceneNamed(name string) *Scene {
	for i := range s.Scenes {
		if s.Scenes[i].Name == name {
			return &s.Scenes[i]
		}
	}
	return nil
}

// RoleNamed returns the role with the given name, or nil.
func (s *Script) RoleNamed(name string) *Role {
	for i := range s.Roles {
		if s.Roles[i].Name == name {
			return &s.Roles[i]
		}
	}
	return nil
}

// PageNamed returns the page with the given name, or nil.
func (s *Script) PageNamed(name string) *Page {
	for i := range s.Pages {
		if s.Pages[i].Name == name {
			return &s.Pages[i]
		}
	}
	return nil
}

// CueNamed returns the cue with the given name, or nil.
func (s *Script) CueNamed(name string) *Cue {
	for i := range s.Cues {
		if s.Cues[i].Name == name {
			return &s.Cues[i]
		}
	}
	return nil
}

// TriggerNamed returns the trigger with the given name, or nil.
func (s *Script) TriggerNamed(name string) *Trigger {
	for i := range s.Triggers {
		if s.Triggers[i].Name == name {
			return &s.Triggers[i]
		}
	}
	return nil
}

// FirstSceneName returns the name of the first non-global scene, the
// scene a fresh trip starts in. Empty if the script has none.
func (s *Script) FirstSceneName() string {
	for i := range s.Scenes {
		if !s.Scenes[i].Global {
			return s.Scenes[i].Name
		}
	}
	return ""
}
