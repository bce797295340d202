package packets

import "fmt"

// FrameError reports why a control packet's variable header or payload
// could not be decoded: which packet type was being read, what was short
// or malformed, and (for a nested failure, e.g. a Properties block) the
// underlying cause.
type FrameError struct {
	Packet string
	Reason string
	Err    error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Packet, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Packet, e.Reason)
}

func (e *FrameError) Unwrap() error { return e.Err }

// tooShort reports a fixed-size field that didn't fit in the bytes the
// fixed header promised.
func tooShort(packet, field string, need, have int) error {
	return &FrameError{Packet: packet, Reason: fmt.Sprintf("buffer too short for %s (need %d, have %d)", field, need, have)}
}

// malformed wraps a structural decode failure that isn't simply "too few
// bytes" (a reserved bit set, an out-of-range value).
func malformed(packet, reason string) error {
	return &FrameError{Packet: packet, Reason: reason}
}

// wrapNested attaches a packet/field label to an error surfaced by a
// shared decoder (Properties, strings, binary data, the variable length
// header) so the caller sees which outer packet actually failed.
func wrapNested(packet, field string, err error) error {
	return &FrameError{Packet: packet, Reason: field, Err: err}
}
