package launch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bnema/swc/internal/drm"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestVTSwitchAck(t *testing.T) {
	einval := errors.New("EINVAL")

	tests := []struct {
		name    string
		release bool
		ackErr  error
		wantLog string
		active  bool
	}{
		{name: "release", release: true, active: false},
		{name: "release ack fails", release: true, ackErr: einval, wantLog: "VT release ack", active: false},
		{name: "acquire", release: false, active: true},
		{name: "acquire ack fails", release: false, ackErr: einval, wantLog: "VT acquire ack", active: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			dev := drm.NewNull()
			s := NewSession(dev, log.New(&out))
			if !tt.release {
				s.active = false
			}

			var order []string
			s.Events.Add(func(st State) { order = append(order, st.String()) })
			ack := func() error {
				order = append(order, "ack")
				return tt.ackErr
			}

			if tt.release {
				s.releaseVT(ack)
				assert.Equal(t, []string{"deactivated", "ack"}, order)
			} else {
				s.acquireVT(ack)
				assert.Equal(t, []string{"ack", "activated"}, order)
			}
			assert.Equal(t, tt.active, s.Active())

			if tt.wantLog == "" {
				assert.NotContains(t, out.String(), "ERRO")
				return
			}
			assert.Contains(t, out.String(), "ERRO")
			assert.Contains(t, out.String(), tt.wantLog)
			assert.Contains(t, out.String(), "EINVAL")
		})
	}

	t.Run("release is acknowledged after a failed hand-off", func(t *testing.T) {
		var out bytes.Buffer
		dev := drm.NewNull()
		dev.MasterErr = errors.New("busy")
		s := NewSession(dev, log.New(&out))

		acked := false
		s.releaseVT(func() error { acked = true; return nil })

		assert.True(t, acked)
		assert.Contains(t, out.String(), "VT release")
	})
}
