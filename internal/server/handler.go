package server

import (
	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/ipc"
)

// HandleStatusQuery implements ipc.MessageHandler
func (s *Server) HandleStatusQuery() (*ipc.Message, error) {
	return s.call(func() (*ipc.Message, error) {
		return ipc.NewStatusResponseMessage(s.Status()), nil
	})
}

// HandleSetCursor implements ipc.MessageHandler
func (s *Server) HandleSetCursor(cmd *ipc.SetCursor) (*ipc.Message, error) {
	id, err := cursor.ParseID(cmd.Name)
	if err != nil {
		return nil, err
	}
	return s.call(func() (*ipc.Message, error) {
		if err := s.seat.Pointer().SetCursor(id); err != nil {
			return nil, err
		}
		return ipc.NewStatusResponseMessage(s.Status()), nil
	})
}

// Status snapshots the seat. It must run on the loop goroutine.
func (s *Server) Status() *ipc.Status {
	p := s.seat.Pointer()
	x, y := p.Position()

	status := &ipc.Status{
		Seat:             s.seat.Name,
		PointerX:         x.Float(),
		PointerY:         y.Float(),
		Cursor:           p.CursorName(),
		SessionActive:    s.session.Active(),
		SoftwareFallback: s.config.Cursor.SoftwareFallback,
	}
	if f := s.seat.Keyboard().Focus(); f != nil {
		status.Focus = f.Resource().String()
	}

	for _, scr := range s.screens.Screens() {
		g := scr.Geometry()
		plane := scr.CursorPlane()
		status.Screens = append(status.Screens, ipc.ScreenStatus{
			Name:    scr.Name,
			CRTC:    scr.CRTC,
			X:       g.X,
			Y:       g.Y,
			Width:   g.Width,
			Height:  g.Height,
			Mode:    p.Mode(scr).String(),
			PlaneOK: plane != nil && plane.OK(),
		})
	}
	return status
}
