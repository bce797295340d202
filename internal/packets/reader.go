package packets

import (
	"io"
	"strconv"
)

// packetDecoder decodes a packet from its already-read variable header and
// payload bytes, given the fixed header (PUBLISH needs its flags) and the
// negotiated protocol version (everything v5.0-only needs it).
type packetDecoder func(remaining []byte, header *FixedHeader, version uint8) (Packet, error)

// decoders is indexed directly by MQTT control packet type (0-15) rather
// than keyed through a map lookup, since the type space is small, dense,
// and fixed by the spec.
var decoders = [16]packetDecoder{
	CONNECT:     func(remaining []byte, _ *FixedHeader, _ uint8) (Packet, error) { return DecodeConnect(remaining) },
	CONNACK:     func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeConnack(remaining, v) },
	PUBLISH:     func(remaining []byte, header *FixedHeader, v uint8) (Packet, error) { return DecodePublish(remaining, header, v) },
	PUBACK:      func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodePuback(remaining, v) },
	PUBREC:      func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodePubrec(remaining, v) },
	PUBREL:      func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodePubrel(remaining, v) },
	PUBCOMP:     func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodePubcomp(remaining, v) },
	SUBSCRIBE:   func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeSubscribe(remaining, v) },
	SUBACK:      func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeSuback(remaining, v) },
	UNSUBSCRIBE: func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeUnsubscribe(remaining, v) },
	UNSUBACK:    func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeUnsuback(remaining, v) },
	PINGREQ:     func(remaining []byte, _ *FixedHeader, _ uint8) (Packet, error) { return DecodePingreq(remaining) },
	PINGRESP:    func(remaining []byte, _ *FixedHeader, _ uint8) (Packet, error) { return DecodePingresp(remaining) },
	DISCONNECT:  func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeDisconnect(remaining, v) },
	AUTH:        func(remaining []byte, _ *FixedHeader, v uint8) (Packet, error) { return DecodeAuth(remaining, v) },
}

// mqttSpecMax is the largest Remaining Length a Variable Byte Integer can
// express (four encoded bytes: 0xFF 0xFF 0xFF 0x7F).
const mqttSpecMax = 268435455

// ReadPacket blocks until a complete MQTT control packet has been read from
// r, decoding it according to version (4 for v3.1.1, 5 for v5.0).
// maxIncomingPacket caps the Remaining Length accepted; 0 (or anything
// above the spec ceiling) falls back to the spec ceiling itself.
func ReadPacket(r io.Reader, version uint8, maxIncomingPacket int) (Packet, error) {
	header, err := DecodeFixedHeader(r)
	if err != nil {
		return nil, wrapNested("fixed header", "decode", err)
	}

	limit := maxIncomingPacket
	if limit <= 0 || limit > mqttSpecMax {
		limit = mqttSpecMax
	}
	if header.RemainingLength > limit {
		return nil, malformed(PacketNames[header.PacketType], remainingLengthOverflowMsg(header.RemainingLength, limit))
	}

	var remaining []byte
	var bufPtr *[]byte

	if header.RemainingLength > 0 {
		bufPtr = GetBuffer(header.RemainingLength)
		remaining = (*bufPtr)[:header.RemainingLength]

		if _, err := io.ReadFull(r, remaining); err != nil {
			PutBuffer(bufPtr)
			return nil, wrapNested(PacketNames[header.PacketType], "payload", err)
		}
	}

	if int(header.PacketType) >= len(decoders) {
		if bufPtr != nil {
			PutBuffer(bufPtr)
		}
		return nil, malformed("unknown", unknownPacketTypeMsg(header.PacketType))
	}
	decode := decoders[header.PacketType]
	if decode == nil {
		if bufPtr != nil {
			PutBuffer(bufPtr)
		}
		return nil, malformed("unknown", unknownPacketTypeMsg(header.PacketType))
	}

	pkt, err := decode(remaining, header, version)

	if bufPtr != nil {
		PutBuffer(bufPtr)
	}

	return pkt, err
}

func remainingLengthOverflowMsg(have, limit int) string {
	return "remaining length " + strconv.Itoa(have) + " exceeds maximum " + strconv.Itoa(limit)
}

func unknownPacketTypeMsg(t uint8) string {
	return "unknown control packet type " + strconv.Itoa(int(t))
}
