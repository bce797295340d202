package packets

import (
	"io"
)

// PingreqPacket represents an MQTT PINGREQ control packet.
type PingreqPacket struct{}

// Type returns the packet type.
func (p *PingreqPacket) Type() uint8 {
	return PINGREQ
}

// WriteTo writes the PINGREQ packet to the writer.
func (p *PingreqPacket) WriteTo(w io.Writer) (int64, error) {
	header := &FixedHeader{
		PacketType:      PINGREQ,
		Flags:           0,
		RemainingLength: 0,
	}

	n, err := header.WriteTo(w)
	return n, err
}

// DecodePingreq decodes a PINGREQ packet. Its variable header is always
// empty; a nonzero Remaining Length indicates a malformed frame.
func DecodePingreq(buf []byte) (*PingreqPacket, error) {
	if len(buf) != 0 {
		return nil, malformed("PINGREQ", "must have zero remaining length")
	}
	return &PingreqPacket{}, nil
}
