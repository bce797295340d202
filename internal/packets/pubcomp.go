package packets

import (
	"encoding/binary"
	"io"
)

// PubcompPacket represents an MQTT PUBCOMP control packet (QoS 2, step 3).
type PubcompPacket struct {
	PacketID uint16

	// MQTT v5.0 fields
	ReasonCode uint8       // v5.0
	Properties *Properties // v5.0
	Version    uint8       // 4 or 5
}

// Type returns the packet type.
func (p *PubcompPacket) Type() uint8 {
	return PUBCOMP
}

// WriteTo writes the PUBCOMP packet to the writer.
func (p *PubcompPacket) WriteTo(w io.Writer) (int64, error) {
	var total int64

	var packetIDBytes [2]byte
	var propsBytes []byte
	var propsLen int

	include := p.ReasonCode != 0 || !p.Properties.IsEmpty()
	if p.Version >= 5 && include {
		propsBytes = encodeProperties(p.Properties)
		propsLen = len(propsBytes)
	}

	variableHeaderLen := 2
	if p.Version >= 5 && include {
		variableHeaderLen += 1 + propsLen // ReasonCode + Props
	}

	header := &FixedHeader{
		PacketType:      PUBCOMP,
		Flags:           0,
		RemainingLength: variableHeaderLen,
	}

	hN, err := header.WriteTo(w)
	total += hN
	if err != nil {
		return total, err
	}
	var n int

	binary.BigEndian.PutUint16(packetIDBytes[:], p.PacketID)
	n, err = w.Write(packetIDBytes[:])
	total += int64(n)
	if err != nil {
		return total, err
	}

	if p.Version >= 5 && include {
		if err := binary.Write(w, binary.BigEndian, p.ReasonCode); err != nil {
			return total, err
		}
		total++

		n, err = w.Write(propsBytes)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// DecodePubcomp decodes a PUBCOMP packet from the buffer.
func DecodePubcomp(buf []byte, version uint8) (*PubcompPacket, error) {
	if len(buf) < 2 {
		return nil, tooShort("PUBCOMP", "packet ID", 2, len(buf))
	}

	pkt := &PubcompPacket{
		Version: version,
	}

	pkt.PacketID = binary.BigEndian.Uint16(buf[0:2])

	if version >= 5 && len(buf) > 2 {
		pkt.ReasonCode = buf[2]
		if len(buf) > 3 {
			props, _, err := decodeProperties(buf[3:])
			if err != nil {
				return nil, wrapNested("PUBCOMP", "properties", err)
			}
			pkt.Properties = props
		}
	}

	return pkt, nil
}
