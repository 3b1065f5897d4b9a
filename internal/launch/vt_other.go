//go:build !linux

package launch

import (
	"context"
	"errors"
)

// WatchVT is only available on Linux.
func (s *Session) WatchVT(ctx context.Context, tty string, post func(func()) error) error {
	return errors.New("virtual terminal switching is not supported on this platform")
}
