package packets

import (
	"io"
)

// PingrespPacket represents an MQTT PINGRESP control packet.
type PingrespPacket struct{}

// Type returns the packet type.
func (p *PingrespPacket) Type() uint8 {
	return PINGRESP
}

// WriteTo writes the PINGRESP packet to the writer.
func (p *PingrespPacket) WriteTo(w io.Writer) (int64, error) {
	header := &FixedHeader{
		PacketType:      PINGRESP,
		Flags:           0,
		RemainingLength: 0,
	}

	n, err := header.WriteTo(w)
	return n, err
}

// DecodePingresp decodes a PINGRESP packet. Its variable header is always
// empty; a nonzero Remaining Length indicates a malformed frame.
func DecodePingresp(buf []byte) (*PingrespPacket, error) {
	if len(buf) != 0 {
		return nil, malformed("PINGRESP", "must have zero remaining length")
	}
	return &PingrespPacket{}, nil
}
