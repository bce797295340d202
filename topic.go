package reactormq

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MatchTopic reports whether topic matches filter using MQTT wildcard rules
// ('+' for a single level, '#' for the remainder). It backs the local
// topic-route table consulted after on_message for every inbound PUBLISH.
func MatchTopic(filter, topic string) bool {
	// MQTT-4.7.2-1: a Topic Filter starting with a wildcard never matches a
	// Topic Name beginning with '$'. Enforced here for local dispatch even
	// though the rule is phrased for servers.
	if len(topic) > 0 && topic[0] == '$' {
		if len(filter) > 0 && (filter[0] == '+' || filter[0] == '#') {
			return false
		}
	}

	fIdx, tIdx := 0, 0
	fLen, tLen := len(filter), len(topic)

	for fIdx <= fLen {
		var fLevel string
		var fNext int

		if idx := strings.IndexByte(filter[fIdx:], '/'); idx >= 0 {
			fNext = fIdx + idx
			fLevel = filter[fIdx:fNext]
		} else {
			fNext = fLen
			fLevel = filter[fIdx:]
		}

		if fLevel == "#" {
			return true
		}

		if tIdx > tLen {
			return false
		}

		var tLevel string
		var tNext int

		if idx := strings.IndexByte(topic[tIdx:], '/'); idx >= 0 {
			tNext = tIdx + idx
			tLevel = topic[tIdx:tNext]
		} else {
			tNext = tLen
			tLevel = topic[tIdx:]
		}

		if fLevel == "+" {
			// matches this level unconditionally
		} else if fLevel != tLevel {
			return false
		}

		if fNext == fLen {
			fIdx = fLen + 1
		} else {
			fIdx = fNext + 1
		}

		if tNext == tLen {
			tIdx = tLen + 1
		} else {
			tIdx = tNext + 1
		}
	}

	return tIdx > tLen
}

// MQTT specification limits (defaults when not configured)
const (
	DefaultMaxTopicLength    = 65535
	DefaultMaxPayloadSize    = 268435455
	DefaultMaxIncomingPacket = 268435455
	MaxClientIDLength        = 23
)

func getLimit(configured, defaultLimit int) int {
	if configured > 0 {
		return configured
	}
	return defaultLimit
}

// validatePublishTopic validates a topic for publishing. Publish topics
// must not contain wildcards.
func validatePublishTopic(topic string, maxTopicLength int) error {
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if strings.ContainsRune(topic, 0) {
		return fmt.Errorf("topic contains null character")
	}

	maxLen := getLimit(maxTopicLength, DefaultMaxTopicLength)
	if len(topic) > maxLen {
		return fmt.Errorf("topic length %d exceeds maximum %d", len(topic), maxLen)
	}

	if strings.Contains(topic, "+") {
		return fmt.Errorf("topic contains single-level wildcard '+' which is not allowed in PUBLISH")
	}
	if strings.Contains(topic, "#") {
		return fmt.Errorf("topic contains multi-level wildcard '#' which is not allowed in PUBLISH")
	}

	return nil
}

// validateSubscribeTopic validates a topic filter for subscribing. Subscribe
// filters may contain wildcards subject to MQTT placement rules.
func validateSubscribeTopic(topic string, maxTopicLength int) error {
	if topic == "" {
		return fmt.Errorf("topic filter cannot be empty")
	}
	if strings.ContainsRune(topic, 0) {
		return fmt.Errorf("topic filter contains null character")
	}

	maxLen := getLimit(maxTopicLength, DefaultMaxTopicLength)
	if len(topic) > maxLen {
		return fmt.Errorf("topic filter length %d exceeds maximum %d", len(topic), maxLen)
	}

	parts := strings.Split(topic, "/")
	for i, part := range parts {
		if strings.Contains(part, "+") && part != "+" {
			return fmt.Errorf("single-level wildcard '+' must occupy entire topic level")
		}
		if strings.Contains(part, "#") {
			if part != "#" {
				return fmt.Errorf("multi-level wildcard '#' must occupy entire topic level")
			}
			if i != len(parts)-1 {
				return fmt.Errorf("multi-level wildcard '#' must be the last character")
			}
		}
	}

	return nil
}

// validatePayload validates message payload size.
func validatePayload(payload []byte, maxPayloadSize int) error {
	maxSize := getLimit(maxPayloadSize, DefaultMaxPayloadSize)
	if len(payload) > maxSize {
		return fmt.Errorf("payload size %d exceeds maximum %d", len(payload), maxSize)
	}
	return nil
}

// validatePayloadFormat checks the payload against the PayloadFormat
// indicator when it declares UTF-8 content.
func validatePayloadFormat(payload []byte, props *Properties) error {
	if props == nil || props.PayloadFormat == nil || *props.PayloadFormat == PayloadFormatBytes {
		return nil
	}
	if !utf8.Valid(payload) {
		return fmt.Errorf("payload is not valid UTF-8 as required by PayloadFormat indicator")
	}
	return nil
}

// topicRoute pairs a compiled filter with the handler registered for it,
// consulted after the generic on_message delegate for every inbound
// PUBLISH whose topic matches.
type topicRoute struct {
	filter  string
	handler MessageHandler
}

// routeTable is the local (non-wire) topic-filter routing table.
type routeTable struct {
	routes []topicRoute
}

func (rt *routeTable) add(filter string, handler MessageHandler) {
	rt.routes = append(rt.routes, topicRoute{filter: filter, handler: handler})
}

func (rt *routeTable) remove(filter string) {
	out := rt.routes[:0]
	for _, r := range rt.routes {
		if r.filter != filter {
			out = append(out, r)
		}
	}
	rt.routes = out
}

// dispatch invokes every handler whose filter matches topic, in registration order.
func (rt *routeTable) dispatch(msg Message) {
	for _, r := range rt.routes {
		if MatchTopic(r.filter, msg.Topic) {
			r.handler(msg)
		}
	}
}
