package buffer

import "fmt"

// Memory allocates CPU buffers. It can export buffers as pixel data but has
// no DRM handles.
type Memory struct {
	// Limit caps the number of live buffers, zero means unlimited.
	Limit int

	live int
}

// NewMemory creates an in-memory allocator.
func NewMemory() *Memory {
	return &Memory{}
}

// Live returns the number of buffers not yet released.
func (m *Memory) Live() int {
	return m.live
}

func (m *Memory) alloc(width, height int32, format Format, stride int32, pixels []byte) (*Buffer, error) {
	if m.Limit > 0 && m.live >= m.Limit {
		return nil, ErrExhausted
	}
	m.live++
	return New(m, width, height, format, stride, pixels, func() { m.live-- }), nil
}

// Create allocates a zeroed buffer.
func (m *Memory) Create(width, height int32, format Format) (*Buffer, error) {
	stride := width * format.BytesPerPixel()
	if err := checkSize(width, height, format, stride); err != nil {
		return nil, err
	}
	return m.alloc(width, height, format, stride, make([]byte, int(stride)*int(height)))
}

// Import copies pixel data into a new buffer. Only KindData is accepted.
func (m *Memory) Import(kind Kind, obj Object, width, height int32, format Format, stride int32) (*Buffer, error) {
	if kind != KindData {
		return nil, fmt.Errorf("import %s: %w", kind, ErrUnsupported)
	}
	if err := checkSize(width, height, format, stride); err != nil {
		return nil, err
	}
	if len(obj.Data) < int(stride)*int(height) {
		return nil, fmt.Errorf("import %d bytes for %dx%d: %w", len(obj.Data), width, height, ErrInvalidSize)
	}
	pixels := make([]byte, int(stride)*int(height))
	copy(pixels, obj.Data)
	return m.alloc(width, height, format, stride, pixels)
}

// Export returns the pixel data. DRM handles are not supported.
func (m *Memory) Export(b *Buffer, kind Kind) (Object, error) {
	if kind != KindData {
		return Object{}, fmt.Errorf("export %s: %w", kind, ErrUnsupported)
	}
	return Object{Data: b.Pixels}, nil
}
