package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/javanstorm/substance/internal/fsutil"
	"github.com/javanstorm/substance/pkg/hypervisor"
)

// RunState is what substance has seen of an engine's machine: boots and
// shutdowns it performed, the VirtualBox version that was validated for the
// last boot, and the machine state reported by the last status query.
type RunState struct {
	BootCount    int       `json:"boot_count"`
	LastBoot     time.Time `json:"last_boot,omitempty"`
	LastShutdown time.Time `json:"last_shutdown,omitempty"`
	// CleanShutdown is false after a forced poweroff and after any boot.
	CleanShutdown bool `json:"clean_shutdown"`

	DriverVersion string `json:"driver_version,omitempty"`

	Machine    hypervisor.MachineState `json:"machine_state,omitempty"`
	ObservedAt time.Time               `json:"observed_at,omitempty"`
}

// StateFile is state.json inside an engine directory.
type StateFile struct {
	path string
	now  func() time.Time
}

// NewStateFile returns the state file of the engine directory dir.
func NewStateFile(dir string) *StateFile {
	return &StateFile{path: filepath.Join(dir, "state.json"), now: time.Now}
}

// Path returns the state file path.
func (s *StateFile) Path() string { return s.path }

// Load reads the state. An engine that was never started has no file and
// an empty state.
func (s *StateFile) Load() (*RunState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &RunState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	state := &RunState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return state, nil
}

// Save replaces the state file.
func (s *StateFile) Save(state *RunState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal engine state: %w", err)
	}
	if err := fsutil.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// RecordBoot counts a successful start under the given VirtualBox version.
func (s *StateFile) RecordBoot(version string) error {
	return s.update(func(st *RunState, now time.Time) {
		st.BootCount++
		st.LastBoot = now
		st.CleanShutdown = false
		st.DriverVersion = version
		st.Machine = hypervisor.StateRunning
		st.ObservedAt = now
	})
}

// RecordShutdown notes a stop. A forced stop powers the machine off at once;
// an ACPI request leaves the machine state to the next observation.
func (s *StateFile) RecordShutdown(clean bool) error {
	return s.update(func(st *RunState, now time.Time) {
		st.LastShutdown = now
		st.CleanShutdown = clean
		if !clean {
			st.Machine = hypervisor.StatePoweroff
			st.ObservedAt = now
		}
	})
}

// RecordObserved stores the machine state reported by the driver.
func (s *StateFile) RecordObserved(state hypervisor.MachineState) error {
	return s.update(func(st *RunState, now time.Time) {
		st.Machine = state
		st.ObservedAt = now
	})
}

func (s *StateFile) update(f func(*RunState, time.Time)) error {
	st, err := s.Load()
	if err != nil {
		return err
	}
	f(st, s.now())
	return s.Save(st)
}
