// Package smf decodes Standard MIDI Files into ordered, typed track events.
package smf

// Reader is a sequential big-endian reader over an immutable byte slice.
// Every read fails with ErrOutOfRange instead of panicking when the data
// runs out.
type Reader struct {
	data     []byte
	pos      int
	encoding TextEncoding
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// SetTextEncoding changes how ReadText decodes characters.
func (r *Reader) SetTextEncoding(e TextEncoding) {
	r.encoding = e
}

// Position returns the current offset.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the total length of the underlying data.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) need(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return ErrOutOfRange
	}
	return nil
}

// PeekByte returns the next byte without advancing.
func (r *Reader) PeekByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.data[r.pos], nil
}

// ReadByte returns the next byte and advances by one.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadBEUint reads an n-byte big-endian unsigned integer, 0 <= n <= 4.
func (r *Reader) ReadBEUint(n int) (uint32, error) {
	if n > 4 {
		return 0, ErrOutOfRange
	}
	if err := r.need(n); err != nil {
		return 0, err
	}
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<8 | uint32(r.data[r.pos+i])
	}
	r.pos += n
	return v, nil
}

// ReadBEUint32 reads a big-endian 32-bit unsigned integer.
func (r *Reader) ReadBEUint32() (uint32, error) {
	return r.ReadBEUint(4)
}

// ReadBEUint16 reads a big-endian 16-bit unsigned integer.
func (r *Reader) ReadBEUint16() (uint16, error) {
	v, err := r.ReadBEUint(2)
	return uint16(v), err
}

// ReadVarint reads a MIDI variable-length quantity: seven bits per byte,
// most significant group first, continuation flagged by 0x80.
func (r *Reader) ReadVarint() (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, ErrVarintTooLong
}

// ReadText reads a length-prefixed string. The prefix is a variable-length
// quantity, which is a single byte for anything shorter than 128 bytes.
func (r *Reader) ReadText() (string, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return r.encoding.decode(b), nil
}

// ReadFixedChars reads exactly n bytes as characters without any decoding.
// Used for chunk magic.
func (r *Reader) ReadFixedChars(n int) (string, error) {
	if err := r.need(n); err != nil {
		return "", err
	}
	s := string(r.data[r.pos : r.pos+n])
	r.pos += n
	return s, nil
}

// Advance skips n bytes.
func (r *Reader) Advance(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}
