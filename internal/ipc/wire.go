package ipc

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned for frames that do not decode
var ErrMalformed = errors.New("malformed message")

// Field numbers. They are part of the wire format and must not be reused.
const (
	fieldMessageType      protowire.Number = 1
	fieldMessageStatus    protowire.Number = 2
	fieldMessageSetCursor protowire.Number = 3
	fieldMessageError     protowire.Number = 4

	fieldStatusSeat     protowire.Number = 1
	fieldStatusX        protowire.Number = 2
	fieldStatusY        protowire.Number = 3
	fieldStatusFocus    protowire.Number = 4
	fieldStatusCursor   protowire.Number = 5
	fieldStatusActive   protowire.Number = 6
	fieldStatusFallback protowire.Number = 7
	fieldStatusScreen   protowire.Number = 8

	fieldScreenName    protowire.Number = 1
	fieldScreenCRTC    protowire.Number = 2
	fieldScreenX       protowire.Number = 3
	fieldScreenY       protowire.Number = 4
	fieldScreenWidth   protowire.Number = 5
	fieldScreenHeight  protowire.Number = 6
	fieldScreenMode    protowire.Number = 7
	fieldScreenPlaneOK protowire.Number = 8

	fieldSetCursorName protowire.Number = 1
)

// Marshal encodes a message in protobuf wire format
func Marshal(msg *Message) []byte {
	var b []byte
	b = appendVarint(b, fieldMessageType, uint64(msg.Type))
	if msg.Status != nil {
		b = appendMessage(b, fieldMessageStatus, marshalStatus(msg.Status))
	}
	if msg.SetCursor != nil {
		b = appendMessage(b, fieldMessageSetCursor, appendString(nil, fieldSetCursorName, msg.SetCursor.Name))
	}
	b = appendString(b, fieldMessageError, msg.Error)
	return b
}

func marshalStatus(s *Status) []byte {
	var b []byte
	b = appendString(b, fieldStatusSeat, s.Seat)
	b = appendDouble(b, fieldStatusX, s.PointerX)
	b = appendDouble(b, fieldStatusY, s.PointerY)
	b = appendString(b, fieldStatusFocus, s.Focus)
	b = appendString(b, fieldStatusCursor, s.Cursor)
	b = appendBool(b, fieldStatusActive, s.SessionActive)
	b = appendBool(b, fieldStatusFallback, s.SoftwareFallback)
	for _, scr := range s.Screens {
		b = appendMessage(b, fieldStatusScreen, marshalScreen(scr))
	}
	return b
}

func marshalScreen(s ScreenStatus) []byte {
	var b []byte
	b = appendString(b, fieldScreenName, s.Name)
	b = appendVarint(b, fieldScreenCRTC, uint64(s.CRTC))
	b = appendSint(b, fieldScreenX, s.X)
	b = appendSint(b, fieldScreenY, s.Y)
	b = appendSint(b, fieldScreenWidth, s.Width)
	b = appendSint(b, fieldScreenHeight, s.Height)
	b = appendString(b, fieldScreenMode, s.Mode)
	b = appendBool(b, fieldScreenPlaneOK, s.PlaneOK)
	return b
}

// Unmarshal decodes a message in protobuf wire format. Unknown fields are
// skipped.
func Unmarshal(data []byte) (*Message, error) {
	msg := &Message{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, v value) error {
		switch {
		case num == fieldMessageType && typ == protowire.VarintType:
			msg.Type = MessageType(v.varint)
		case num == fieldMessageStatus && typ == protowire.BytesType:
			s, err := unmarshalStatus(v.bytes)
			if err != nil {
				return err
			}
			msg.Status = s
		case num == fieldMessageSetCursor && typ == protowire.BytesType:
			sc := &SetCursor{}
			err := walk(v.bytes, func(num protowire.Number, typ protowire.Type, v value) error {
				if num == fieldSetCursorName && typ == protowire.BytesType {
					sc.Name = string(v.bytes)
				}
				return nil
			})
			if err != nil {
				return err
			}
			msg.SetCursor = sc
		case num == fieldMessageError && typ == protowire.BytesType:
			msg.Error = string(v.bytes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func unmarshalStatus(data []byte) (*Status, error) {
	s := &Status{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, v value) error {
		switch {
		case num == fieldStatusSeat && typ == protowire.BytesType:
			s.Seat = string(v.bytes)
		case num == fieldStatusX && typ == protowire.Fixed64Type:
			s.PointerX = math.Float64frombits(v.fixed64)
		case num == fieldStatusY && typ == protowire.Fixed64Type:
			s.PointerY = math.Float64frombits(v.fixed64)
		case num == fieldStatusFocus && typ == protowire.BytesType:
			s.Focus = string(v.bytes)
		case num == fieldStatusCursor && typ == protowire.BytesType:
			s.Cursor = string(v.bytes)
		case num == fieldStatusActive && typ == protowire.VarintType:
			s.SessionActive = protowire.DecodeBool(v.varint)
		case num == fieldStatusFallback && typ == protowire.VarintType:
			s.SoftwareFallback = protowire.DecodeBool(v.varint)
		case num == fieldStatusScreen && typ == protowire.BytesType:
			scr, err := unmarshalScreen(v.bytes)
			if err != nil {
				return err
			}
			s.Screens = append(s.Screens, scr)
		}
		return nil
	})
	return s, err
}

func unmarshalScreen(data []byte) (ScreenStatus, error) {
	var s ScreenStatus
	err := walk(data, func(num protowire.Number, typ protowire.Type, v value) error {
		switch {
		case num == fieldScreenName && typ == protowire.BytesType:
			s.Name = string(v.bytes)
		case num == fieldScreenCRTC && typ == protowire.VarintType:
			s.CRTC = uint32(v.varint)
		case num == fieldScreenX && typ == protowire.VarintType:
			s.X = int32(protowire.DecodeZigZag(v.varint))
		case num == fieldScreenY && typ == protowire.VarintType:
			s.Y = int32(protowire.DecodeZigZag(v.varint))
		case num == fieldScreenWidth && typ == protowire.VarintType:
			s.Width = int32(protowire.DecodeZigZag(v.varint))
		case num == fieldScreenHeight && typ == protowire.VarintType:
			s.Height = int32(protowire.DecodeZigZag(v.varint))
		case num == fieldScreenMode && typ == protowire.BytesType:
			s.Mode = string(v.bytes)
		case num == fieldScreenPlaneOK && typ == protowire.VarintType:
			s.PlaneOK = protowire.DecodeBool(v.varint)
		}
		return nil
	})
	return s, err
}

type value struct {
	varint  uint64
	fixed64 uint64
	bytes   []byte
}

// walk calls fn for every field of an encoded message.
func walk(data []byte, fn func(protowire.Number, protowire.Type, value) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		var v value
		switch typ {
		case protowire.VarintType:
			v.varint, n = protowire.ConsumeVarint(data)
		case protowire.Fixed64Type:
			v.fixed64, n = protowire.ConsumeFixed64(data)
		case protowire.BytesType:
			v.bytes, n = protowire.ConsumeBytes(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
		}
		data = data[n:]

		if err := fn(num, typ, v); err != nil {
			return err
		}
	}
	return nil
}

// Zero values are omitted, as proto3 does.

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSint(b []byte, num protowire.Number, v int32) []byte {
	return appendVarint(b, num, protowire.EncodeZigZag(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}
