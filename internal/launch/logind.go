package launch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	logindService   = "org.freedesktop.login1"
	logindPath      = "/org/freedesktop/login1"
	logindManager   = "org.freedesktop.login1.Manager"
	logindSession   = "org.freedesktop.login1.Session"
	propertiesIface = "org.freedesktop.DBus.Properties"
)

// ErrBusClosed is returned by WatchLogind when the system bus goes away.
var ErrBusClosed = errors.New("system bus connection closed")

// WatchLogind follows the Active property of this process's logind session
// and turns its changes into Activate/Deactivate calls run through post.
// It returns when ctx is done.
func (s *Session) WatchLogind(ctx context.Context, post func(func()) error) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	path, err := sessionPath(conn)
	if err != nil {
		return err
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("failed to watch session %s: %w", path, err)
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	s.log.Debug("Watching logind session", "path", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return ErrBusClosed
			}
			active, changed := activeChanged(sig)
			if !changed {
				continue
			}
			if err := post(func() { s.setActive(active) }); err != nil {
				return err
			}
		}
	}
}

// sessionPath finds the session object, by XDG_SESSION_ID when set and by
// process otherwise.
func sessionPath(conn *dbus.Conn) (dbus.ObjectPath, error) {
	obj := conn.Object(logindService, logindPath)

	var path dbus.ObjectPath
	var call *dbus.Call
	if id := os.Getenv("XDG_SESSION_ID"); id != "" {
		call = obj.Call(logindManager+".GetSession", 0, id)
	} else {
		call = obj.Call(logindManager+".GetSessionByPID", 0, uint32(os.Getpid()))
	}
	if err := call.Store(&path); err != nil {
		return "", fmt.Errorf("failed to find logind session: %w", err)
	}
	return path, nil
}

// activeChanged extracts the Active property from a PropertiesChanged
// signal of a session object.
func activeChanged(sig *dbus.Signal) (active, ok bool) {
	if sig == nil || sig.Name != propertiesIface+".PropertiesChanged" || len(sig.Body) < 2 {
		return false, false
	}
	if iface, _ := sig.Body[0].(string); iface != logindSession {
		return false, false
	}
	props, isMap := sig.Body[1].(map[string]dbus.Variant)
	if !isMap {
		return false, false
	}
	v, found := props["Active"]
	if !found {
		return false, false
	}
	active, ok = v.Value().(bool)
	return active, ok
}

func (s *Session) setActive(active bool) {
	var err error
	if active {
		err = s.Activate()
	} else {
		err = s.Deactivate()
	}
	if err != nil {
		s.log.Error("logind session change", "active", active, "err", err)
	}
}
