package reactormq

// SubscribeResult carries the per-filter outcome of a SUBSCRIBE as read from
// its SUBACK. The subscribe Token completes with ErrSubscriptionFailed when
// any filter was refused and with nil otherwise; the per-filter results
// are not exposed through the Client.
type SubscribeResult struct {
	Filter  string
	QoS     uint8
	Success bool
}

// subscribeAckSuccess reports whether a single SUBACK reason/return code
// byte represents a granted subscription, for the given protocol version.
func subscribeAckSuccess(version uint8, code uint8) bool {
	if version >= ProtocolV50 {
		switch code {
		case 0x00, 0x01, 0x02:
			return true
		default:
			return false
		}
	}
	return code != 0x80
}

// resolveSubscribeAck zips the originally-requested filters against the
// SUBACK's per-filter codes (up to the shorter length) and produces the
// result set used to resolve the subscribe token.
func resolveSubscribeAck(version uint8, filters []subscribeFilter, codes []uint8) []SubscribeResult {
	n := len(filters)
	if len(codes) < n {
		n = len(codes)
	}
	results := make([]SubscribeResult, n)
	for i := 0; i < n; i++ {
		ok := subscribeAckSuccess(version, codes[i])
		results[i] = SubscribeResult{
			Filter:  filters[i].filter,
			QoS:     codes[i] & 0x03,
			Success: ok,
		}
	}
	return results
}

// anySubscribeFailed reports whether the batch contains at least one
// rejected filter, which is what the subscribe Token's error reflects.
func anySubscribeFailed(results []SubscribeResult) bool {
	for _, r := range results {
		if !r.Success {
			return true
		}
	}
	return false
}

// unsubscribeAckSuccess reports whether an UNSUBACK reason code (MQTT v5.0
// only; v3.1.1 has no per-filter codes and is always treated as success)
// represents success.
func unsubscribeAckSuccess(code uint8) bool {
	switch code {
	case 0x00, 0x11: // Success, No subscription existed
		return true
	default:
		return false
	}
}

// resolveUnsubscribeAck mirrors resolveSubscribeAck for UNSUBACK. For
// MQTT v3.1.1, codes is empty and every filter resolves successfully.
func resolveUnsubscribeAck(version uint8, filters []string, codes []uint8) []SubscribeResult {
	results := make([]SubscribeResult, len(filters))
	for i, f := range filters {
		ok := true
		if version >= ProtocolV50 && i < len(codes) {
			ok = unsubscribeAckSuccess(codes[i])
		}
		results[i] = SubscribeResult{Filter: f, Success: ok}
	}
	return results
}
