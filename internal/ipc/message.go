package ipc

import (
	"errors"
	"fmt"
)

// MessageType identifies an IPC message
type MessageType int32

const (
	MessageTypeUnspecified MessageType = iota
	MessageTypeStatus
	MessageTypeStatusResponse
	MessageTypeSetCursor
	MessageTypeError
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeStatus:
		return "status"
	case MessageTypeStatusResponse:
		return "status_response"
	case MessageTypeSetCursor:
		return "set_cursor"
	case MessageTypeError:
		return "error"
	default:
		return fmt.Sprintf("unspecified(%d)", int32(t))
	}
}

// ErrUnexpectedMessage is returned when a message has the wrong type or payload
var ErrUnexpectedMessage = errors.New("unexpected message")

// Message is the envelope of every request and response
type Message struct {
	Type      MessageType
	Status    *Status
	SetCursor *SetCursor
	Error     string
}

// Status describes the running seat
type Status struct {
	Seat             string
	PointerX         float64
	PointerY         float64
	Focus            string
	Cursor           string
	SessionActive    bool
	SoftwareFallback bool
	Screens          []ScreenStatus
}

// ScreenStatus describes one screen and its cursor plane
type ScreenStatus struct {
	Name    string
	CRTC    uint32
	X, Y    int32
	Width   int32
	Height  int32
	Mode    string
	PlaneOK bool
}

// SetCursor asks the seat to show a built-in cursor
type SetCursor struct {
	Name string
}

// NewStatusMessage creates a new status query message
func NewStatusMessage() *Message {
	return &Message{Type: MessageTypeStatus}
}

// NewStatusResponseMessage wraps a status
func NewStatusResponseMessage(status *Status) *Message {
	return &Message{Type: MessageTypeStatusResponse, Status: status}
}

// NewSetCursorMessage creates a set-cursor command
func NewSetCursorMessage(name string) *Message {
	return &Message{Type: MessageTypeSetCursor, SetCursor: &SetCursor{Name: name}}
}

// NewErrorMessage creates a new error message
func NewErrorMessage(errMsg string) *Message {
	return &Message{Type: MessageTypeError, Error: errMsg}
}

// GetStatusResponse extracts the status from a response
func GetStatusResponse(msg *Message) (*Status, error) {
	if msg.Type != MessageTypeStatusResponse {
		return nil, fmt.Errorf("%w: %s is not a status response", ErrUnexpectedMessage, msg.Type)
	}
	if msg.Status == nil {
		return nil, fmt.Errorf("%w: empty status response", ErrUnexpectedMessage)
	}
	return msg.Status, nil
}

// GetSetCursor extracts the set-cursor command
func GetSetCursor(msg *Message) (*SetCursor, error) {
	if msg.Type != MessageTypeSetCursor {
		return nil, fmt.Errorf("%w: %s is not a set_cursor command", ErrUnexpectedMessage, msg.Type)
	}
	if msg.SetCursor == nil {
		return nil, fmt.Errorf("%w: empty set_cursor command", ErrUnexpectedMessage)
	}
	return msg.SetCursor, nil
}
