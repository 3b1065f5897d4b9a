package launch

// releaseVT hands the hardware off and then lets the kernel complete the
// switch away. ack is called even if the hand-off failed, since the switch
// is stuck until it is acknowledged.
func (s *Session) releaseVT(ack func() error) {
	if err := s.Deactivate(); err != nil {
		s.log.Error("VT release", "err", err)
	}
	if err := ack(); err != nil {
		s.log.Error("VT release ack", "err", err)
	}
}

// acquireVT acknowledges the switch back and then regains the hardware.
func (s *Session) acquireVT(ack func() error) {
	if err := ack(); err != nil {
		s.log.Error("VT acquire ack", "err", err)
	}
	if err := s.Activate(); err != nil {
		s.log.Error("VT acquire", "err", err)
	}
}
