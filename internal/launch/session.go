// Package launch tracks whether this session currently owns the display
// hardware. Ownership is lost when the user switches to another virtual
// terminal and regained when they switch back.
package launch

import (
	"fmt"

	"github.com/bnema/swc/internal/drm"
	"github.com/bnema/swc/internal/event"
	"github.com/charmbracelet/log"
)

// State is a session ownership transition.
type State int

const (
	// Deactivated is emitted after display control was handed off.
	Deactivated State = iota
	// Activated is emitted after display control was regained.
	Activated
)

func (s State) String() string {
	if s == Activated {
		return "activated"
	}
	return "deactivated"
}

// Session is the privilege state of the compositor.
type Session struct {
	// Events reports activation changes.
	Events event.Signal[State]

	master drm.Master
	active bool
	log    *log.Logger
}

// NewSession creates an active session. master may be nil when there is no
// device to hand off.
func NewSession(master drm.Master, logger *log.Logger) *Session {
	return &Session{master: master, active: true, log: logger}
}

// Active reports whether the session owns the hardware.
func (s *Session) Active() bool {
	return s.active
}

// Activate regains display control and notifies listeners so they can
// restore hardware state.
func (s *Session) Activate() error {
	if s.active {
		return nil
	}
	if s.master != nil {
		if err := s.master.SetMaster(); err != nil {
			return fmt.Errorf("failed to activate session: %w", err)
		}
	}
	s.active = true
	s.log.Info("Session activated")
	s.Events.Emit(Activated)
	return nil
}

// Deactivate notifies listeners and hands display control off.
func (s *Session) Deactivate() error {
	if !s.active {
		return nil
	}
	s.active = false
	s.log.Info("Session deactivated")
	s.Events.Emit(Deactivated)
	if s.master != nil {
		if err := s.master.DropMaster(); err != nil {
			return fmt.Errorf("failed to deactivate session: %w", err)
		}
	}
	return nil
}
