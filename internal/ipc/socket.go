package ipc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/swc/internal/logger"
)

// MaxMessageSize bounds a single frame.
const MaxMessageSize = 1 << 20

// ErrMessageTooLarge is returned for frames above MaxMessageSize
var ErrMessageTooLarge = errors.New("message too large")

// SocketServer handles incoming IPC connections
type SocketServer struct {
	mu         sync.Mutex
	listener   net.Listener
	socketPath string
	handler    MessageHandler
	wg         sync.WaitGroup
	cancel     context.CancelFunc
	running    bool
}

// MessageHandler defines the interface for handling IPC messages
type MessageHandler interface {
	HandleStatusQuery() (*Message, error)
	HandleSetCursor(cmd *SetCursor) (*Message, error)
}

// NewSocketServer creates a new socket server listening on socketPath
func NewSocketServer(socketPath string, handler MessageHandler) (*SocketServer, error) {
	if socketPath == "" {
		return nil, fmt.Errorf("socket path is empty")
	}

	return &SocketServer{
		socketPath: socketPath,
		handler:    handler,
	}, nil
}

// SocketPath returns the path of the listening socket
func (s *SocketServer) SocketPath() string {
	return s.socketPath
}

// Start starts the socket server
func (s *SocketServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	// Remove existing socket file if it exists
	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket listener: %w", err)
	}

	// User only
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.listener = listener
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.acceptConnections(ctx)

	logger.Infof("IPC socket server started at %s", s.socketPath)
	return nil
}

// Stop stops the socket server
func (s *SocketServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	if s.cancel != nil {
		s.cancel()
	}

	if s.listener != nil {
		s.listener.Close()
	}

	s.wg.Wait()

	os.RemoveAll(s.socketPath)

	logger.Info("IPC socket server stopped")
}

func (s *SocketServer) acceptConnections(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Errorf("Failed to accept connection: %v", err)
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(ctx, conn)
	}
}

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	// Unblock the read below on shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	logger.Debug("New IPC connection established")

	for {
		msg, err := readMessage(conn)
		if err != nil {
			logger.Debugf("Connection closed or read error: %v", err)
			return
		}

		response := s.handleMessage(msg)
		if err := writeMessage(conn, response); err != nil {
			logger.Errorf("Failed to send response: %v", err)
			return
		}
	}
}

// handleMessage processes a single message and returns a response
func (s *SocketServer) handleMessage(msg *Message) *Message {
	switch msg.Type {
	case MessageTypeStatus:
		response, err := s.handler.HandleStatusQuery()
		if err != nil {
			return NewErrorMessage(err.Error())
		}
		return response

	case MessageTypeSetCursor:
		cmd, err := GetSetCursor(msg)
		if err != nil {
			return NewErrorMessage(fmt.Sprintf("Invalid set_cursor command: %v", err))
		}

		response, err := s.handler.HandleSetCursor(cmd)
		if err != nil {
			return NewErrorMessage(err.Error())
		}
		return response

	default:
		return NewErrorMessage(fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

// readMessage reads one length-prefixed frame (4 bytes, big endian)
func readMessage(r io.Reader) (*Message, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if length > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read message data: %w", err)
	}

	msg, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return msg, nil
}

// writeMessage writes one length-prefixed frame
func writeMessage(w io.Writer, msg *Message) error {
	data := Marshal(msg)

	length := uint32(len(data)) //nolint:gosec // bounded by MaxMessageSize on read
	if err := binary.Write(w, binary.BigEndian, length); err != nil {
		return fmt.Errorf("failed to write message length: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write message data: %w", err)
	}

	return nil
}
