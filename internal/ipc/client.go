package ipc

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/bnema/swc/internal/logger"
)

// DefaultTimeout bounds one request.
const DefaultTimeout = 5 * time.Second

// ErrNotRunning is returned when nothing listens on the socket
var ErrNotRunning = errors.New("swc is not running")

// Client handles IPC communication with a running swc instance
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client for the socket at socketPath
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    DefaultTimeout,
	}
}

// NewClientWithTimeout creates a new IPC client with custom timeout
func NewClientWithTimeout(socketPath string, timeout time.Duration) *Client {
	client := NewClient(socketPath)
	client.timeout = timeout
	return client
}

// SendStatus asks the running instance for its seat status
func (c *Client) SendStatus() (*Status, error) {
	response, err := c.sendMessage(NewStatusMessage())
	if err != nil {
		return nil, err
	}
	return statusFrom(response)
}

// SendSetCursor asks the running instance to show a built-in cursor
func (c *Client) SendSetCursor(name string) (*Status, error) {
	response, err := c.sendMessage(NewSetCursorMessage(name))
	if err != nil {
		return nil, err
	}
	return statusFrom(response)
}

// IsRunning checks if an instance answers on the socket
func (c *Client) IsRunning() bool {
	_, err := c.SendStatus()
	return err == nil
}

func statusFrom(response *Message) (*Status, error) {
	switch response.Type {
	case MessageTypeStatusResponse:
		return GetStatusResponse(response)
	case MessageTypeError:
		return nil, fmt.Errorf("server error: %s", response.Error)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedMessage, response.Type)
	}
}

// sendMessage sends a message and returns the response
func (c *Client) sendMessage(msg *Message) (*Message, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		if isConnectionRefused(err) {
			return nil, ErrNotRunning
		}
		return nil, fmt.Errorf("failed to connect to swc: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close IPC connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		logger.Warnf("Failed to set connection deadline: %v", err)
	}

	if err := writeMessage(conn, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	response, err := readMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return response, nil
}

// isConnectionRefused reports dial failures, which mean no listener
func isConnectionRefused(err error) bool {
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return netErr.Op == "dial"
	}
	return false
}
