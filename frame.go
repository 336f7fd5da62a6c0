package yamux

import "encoding/binary"

// header is the 12-byte frame header: version(1) | type(1) | flags(2) |
// stream_id(4) | length(4), all big-endian.
type header struct {
	Version  uint8
	Type     uint8
	Flags    uint16
	StreamID uint32
	Length   uint32
}

// hasFlag reports whether f is set in the header's flag bitset.
func (h header) hasFlag(f uint16) bool {
	return h.Flags&f != 0
}

// encodeHeader is total: it never fails, and always produces exactly
// headerSize bytes. dst must be at least headerSize bytes long.
func encodeHeader(h header, dst []byte) {
	dst[0] = h.Version
	dst[1] = h.Type
	binary.BigEndian.PutUint16(dst[2:4], h.Flags)
	binary.BigEndian.PutUint32(dst[4:8], h.StreamID)
	binary.BigEndian.PutUint32(dst[8:12], h.Length)
}

// decodeHeader parses exactly headerSize bytes from src. It rejects an
// unknown version or frame type with ErrProtocol; flags and length are
// never individually rejected here — callers validate those per frame
// type.
func decodeHeader(src []byte) (header, error) {
	h := header{
		Version:  src[0],
		Type:     src[1],
		Flags:    binary.BigEndian.Uint16(src[2:4]),
		StreamID: binary.BigEndian.Uint32(src[4:8]),
		Length:   binary.BigEndian.Uint32(src[8:12]),
	}
	if h.Version != protoVersion {
		return header{}, ErrProtocol
	}
	switch h.Type {
	case typeData, typeWindowUpdate, typePing, typeGoAway:
	default:
		return header{}, ErrProtocol
	}
	return h, nil
}

// encodeUint32 serializes a 4-byte big-endian payload, used for
// WINDOW_UPDATE and GO_AWAY bodies.
func encodeUint32(v uint32, dst []byte) {
	binary.BigEndian.PutUint32(dst, v)
}

// decodeUint32 parses a 4-byte big-endian payload.
func decodeUint32(src []byte) uint32 {
	return binary.BigEndian.Uint32(src)
}

// encode4 is a convenience allocator for the common case of a single
// 4-byte big-endian payload (window deltas, go-away reasons).
func encode4(v uint32) []byte {
	b := make([]byte, 4)
	encodeUint32(v, b)
	return b
}
