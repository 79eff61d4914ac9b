package store

import (
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/model"
)

// FocusTrigger represents what triggered a focus mode change.
type FocusTrigger string

const (
	// FocusTriggerUser indicates a user-initiated change (CLI, TUI, etc.)
	FocusTriggerUser FocusTrigger = "user"
	// FocusTriggerSchedule indicates a scheduled change
	FocusTriggerSchedule FocusTrigger = "schedule"
	// FocusTriggerSystem indicates a system event triggered the change
	FocusTriggerSystem FocusTrigger = "system"
)

// FocusTransition records details about a focus mode change.
type FocusTransition struct {
	Trigger   FocusTrigger `json:"trigger" yaml:"trigger"`
	Reason    string       `json:"reason" yaml:"reason"`                     // e.g. "focus on"
	Source    string       `json:"source,omitempty" yaml:"source,omitempty"` // e.g. "cli", "waybar"
	Timestamp int64        `json:"timestamp" yaml:"timestamp"`
}

// SharedState is state shared between the notch CLI and notchd.
// It is persisted to ~/.local/share/notchd/state.json
type SharedState struct {
	FocusEnabled        bool             `json:"focus_enabled" yaml:"focus_enabled"`
	FocusLastTransition *FocusTransition `json:"focus_last_transition,omitempty" yaml:"focus_last_transition,omitempty"`

	// Per-display style preference keyed by connector name.
	DisplayStyles map[string]string `json:"display_styles,omitempty" yaml:"display_styles,omitempty"`

	SchemaVersion int `json:"schema_version" yaml:"schema_version"`
}

// CurrentSchemaVersion is the current version of the state schema.
const CurrentSchemaVersion = 1

// stateFileMutex protects concurrent access to the state file.
var stateFileMutex sync.RWMutex

// DefaultSharedState returns a new SharedState with default values.
func DefaultSharedState() *SharedState {
	return &SharedState{SchemaVersion: CurrentSchemaVersion}
}

// StateFilePath returns the path to the state file.
func StateFilePath() (string, error) {
	if config.DataPath() == "" {
		return "", errors.New("unable to determine data directory")
	}
	return config.StatePath(), nil
}

// LoadSharedState loads the shared state from the default location.
func LoadSharedState() (*SharedState, error) {
	path, err := StateFilePath()
	if err != nil {
		return nil, err
	}
	return LoadSharedStateFrom(path)
}

// LoadSharedStateFrom loads shared state from path.
// A missing or corrupted file yields the default state.
func LoadSharedStateFrom(path string) (*SharedState, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSharedState(), nil
		}
		return nil, err
	}

	var state SharedState
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultSharedState(), nil
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}
	return &state, nil
}

// SaveSharedState saves the shared state to the default location.
func SaveSharedState(state *SharedState) error {
	path, err := StateFilePath()
	if err != nil {
		return err
	}
	return SaveSharedStateTo(state, path)
}

// SaveSharedStateTo writes state to path atomically.
func SaveSharedStateTo(state *SharedState, path string) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// UpdateSharedState loads the state at path, applies fn and saves it.
func UpdateSharedState(path string, fn func(*SharedState) error) (*SharedState, error) {
	state, err := LoadSharedStateFrom(path)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := SaveSharedStateTo(state, path); err != nil {
		return nil, err
	}
	return state, nil
}

// SetFocus updates focus mode with transition tracking.
func (s *SharedState) SetFocus(enabled bool, trigger FocusTrigger, reason, source string) {
	s.FocusEnabled = enabled
	s.FocusLastTransition = &FocusTransition{
		Trigger:   trigger,
		Reason:    reason,
		Source:    source,
		Timestamp: time.Now().Unix(),
	}
}

// ToggleFocus flips focus mode and returns the new state.
func (s *SharedState) ToggleFocus(trigger FocusTrigger, reason, source string) bool {
	s.SetFocus(!s.FocusEnabled, trigger, reason, source)
	return s.FocusEnabled
}

// SetDisplayStyle records the style preference for a display. Auto removes
// the entry.
func (s *SharedState) SetDisplayStyle(id model.DisplayID, pref model.StylePreference) {
	if pref == model.StylePreferenceAuto || pref == "" {
		delete(s.DisplayStyles, string(id))
		return
	}
	if s.DisplayStyles == nil {
		s.DisplayStyles = make(map[string]string)
	}
	s.DisplayStyles[string(id)] = string(pref)
}

// StylePreferences returns the valid display style preferences.
// Unparseable entries are skipped.
func (s *SharedState) StylePreferences() map[model.DisplayID]model.StylePreference {
	out := make(map[model.DisplayID]model.StylePreference, len(s.DisplayStyles))
	for id, raw := range s.DisplayStyles {
		pref, err := model.ParseStylePreference(raw)
		if err != nil {
			continue
		}
		out[model.DisplayID(id)] = pref
	}
	return out
}

// Clone returns a deep copy.
func (s *SharedState) Clone() *SharedState {
	c := *s
	if s.FocusLastTransition != nil {
		t := *s.FocusLastTransition
		c.FocusLastTransition = &t
	}
	c.DisplayStyles = maps.Clone(s.DisplayStyles)
	return &c
}
