package reactormq

import (
	"encoding/binary"
	"time"

	"github.com/reactormq/reactormq/internal/packets"
)

const publishTimeout = 30 * time.Second

// readyState is the live, fully-handshaken connection: the only state in
// which user commands actually touch the wire.
type readyState struct {
	baseState
}

func newReadyState() *readyState { return &readyState{} }

func (s *readyState) name() string { return "Ready" }

func (s *readyState) onEnter(ctx *Context) transition {
	ctx.fireOnConnect(true)
	ctx.recordActivity()

	for id, cmd := range ctx.pendingPublishes {
		cmd.dup = true
		cmd.packetID = id
		if err := ctx.send(publishPacketFromCommand(ctx, cmd)); err != nil {
			ctx.logger.Warn("retransmit failed", "packet_id", id, "error", err)
			continue
		}
		ctx.publishSentTimes[id] = time.Now()
	}
	return stay()
}

func (s *readyState) onExit(ctx *Context) {
	ctx.pingPending = false
}

func (s *readyState) handleCommand(ctx *Context, cmd command) transition {
	switch c := cmd.(type) {
	case publishCommand:
		s.handlePublish(ctx, &c)
		return stay()
	case subscribeCommand:
		s.handleSubscribe(ctx, c)
		return stay()
	case unsubscribeCommand:
		s.handleUnsubscribe(ctx, c)
		return stay()
	case disconnectCommand:
		return goTo(newClosingState(c.token, c.opts))
	case connectCommand:
		c.token.complete(nil)
		return stay()
	default:
		return stay()
	}
}

func (s *readyState) handlePublish(ctx *Context, c *publishCommand) {
	if c.qos > 0 && !ctx.canAddPendingCommand() {
		c.token.complete(ErrMaxPendingCommands)
		return
	}

	var id uint16
	if c.qos > 0 {
		allocated, ok := ctx.packetIDs.acquire()
		if !ok {
			c.token.complete(ErrPacketIDPoolExhausted)
			return
		}
		id = allocated
	}
	c.packetID = id

	pkt := publishPacketFromCommand(ctx, c)
	var buf countingBuffer
	if _, err := pkt.WriteTo(&buf); err != nil {
		if c.qos > 0 {
			ctx.packetIDs.release(id)
		}
		c.token.complete(err)
		return
	}
	if !ctx.canAddToOutboundQueue(buf.n) {
		if c.qos > 0 {
			ctx.packetIDs.release(id)
		}
		c.token.complete(ErrOutboundQueueFull)
		return
	}

	if err := ctx.send(pkt); err != nil {
		if c.qos > 0 {
			ctx.packetIDs.release(id)
		}
		c.token.complete(err)
		return
	}

	if c.qos == 0 {
		c.token.complete(nil)
		return
	}

	ctx.pendingPublishes[id] = c
	ctx.publishSentTimes[id] = time.Now()
}

func (s *readyState) handleSubscribe(ctx *Context, c subscribeCommand) {
	if !ctx.canAddPendingCommand() {
		c.token.complete(ErrMaxPendingCommands)
		return
	}
	id, ok := ctx.packetIDs.acquire()
	if !ok {
		c.token.complete(ErrPacketIDPoolExhausted)
		return
	}

	pkt := &packets.SubscribePacket{
		PacketID: id,
		Version:  ctx.protocolVersion,
	}
	for _, f := range c.filters {
		pkt.Topics = append(pkt.Topics, f.filter)
		pkt.QoS = append(pkt.QoS, f.qos)
	}

	if err := ctx.send(pkt); err != nil {
		ctx.packetIDs.release(id)
		c.token.complete(err)
		return
	}

	cc := c
	cc.token = c.token
	ctx.pendingSubscribes[id] = &cc
}

func (s *readyState) handleUnsubscribe(ctx *Context, c unsubscribeCommand) {
	if !ctx.canAddPendingCommand() {
		c.token.complete(ErrMaxPendingCommands)
		return
	}
	id, ok := ctx.packetIDs.acquire()
	if !ok {
		c.token.complete(ErrPacketIDPoolExhausted)
		return
	}

	pkt := &packets.UnsubscribePacket{
		PacketID: id,
		Topics:   c.filters,
		Version:  ctx.protocolVersion,
	}

	if err := ctx.send(pkt); err != nil {
		ctx.packetIDs.release(id)
		c.token.complete(err)
		return
	}

	cc := c
	ctx.pendingUnsubscribes[id] = &cc
}

func (s *readyState) onDataReceived(ctx *Context, data []byte) transition {
	pkts, err := ctx.feed(data)
	if err != nil {
		ctx.logger.Error("malformed packet, disconnecting", "error", err)
		return goTo(newDisconnectedState(false))
	}

	for _, pkt := range pkts {
		if t := s.dispatchPacket(ctx, pkt); t.isTransition() {
			return t
		}
	}
	return stay()
}

func (s *readyState) dispatchPacket(ctx *Context, pkt packets.Packet) transition {
	switch p := pkt.(type) {
	case *packets.PubackPacket:
		s.resolvePublishAck(ctx, p.PacketID)

	case *packets.PubcompPacket:
		s.resolvePublishAck(ctx, p.PacketID)

	case *packets.PubrecPacket:
		if _, ok := ctx.pendingPublishes[p.PacketID]; ok {
			_ = ctx.send(&packets.PubrelPacket{PacketID: p.PacketID, Version: ctx.protocolVersion})
		}

	case *packets.PubrelPacket:
		if msg, ok := ctx.pendingIncomingQoS2[p.PacketID]; ok {
			if err := ctx.send(&packets.PubcompPacket{PacketID: p.PacketID, Version: ctx.protocolVersion}); err == nil {
				ctx.dispatchMessage(msg)
			}
			delete(ctx.pendingIncomingQoS2, p.PacketID)
			delete(ctx.incomingPacketIDs, p.PacketID)
		}

	case *packets.SubackPacket:
		s.resolveSuback(ctx, p)

	case *packets.UnsubackPacket:
		s.resolveUnsuback(ctx, p)

	case *packets.PublishPacket:
		s.handleIncomingPublish(ctx, p)

	case *packets.PingrespPacket:
		ctx.pingPending = false
		ctx.recordActivity()

	case *packets.DisconnectPacket:
		return goTo(newDisconnectedState(false))

	default:
		ctx.logger.Warn("unexpected packet in Ready", "type", pkt.Type())
	}
	return stay()
}

func (s *readyState) resolvePublishAck(ctx *Context, id uint16) {
	delete(ctx.publishSentTimes, id)
	if cmd, ok := ctx.pendingPublishes[id]; ok {
		ctx.packetIDs.release(id)
		delete(ctx.pendingPublishes, id)
		cmd.token.complete(nil)
	}
}

func (s *readyState) resolveSuback(ctx *Context, p *packets.SubackPacket) {
	cmd, ok := ctx.pendingSubscribes[p.PacketID]
	if !ok {
		return
	}
	ctx.packetIDs.release(p.PacketID)
	delete(ctx.pendingSubscribes, p.PacketID)

	if len(p.ReturnCodes) == 0 {
		cmd.token.complete(&MqttError{Message: "Empty SUBACK"})
		return
	}

	results := resolveSubscribeAck(ctx.protocolVersion, cmd.filters, p.ReturnCodes)
	for i, r := range results {
		if r.Success && cmd.filters[i].handler != nil {
			ctx.routes.add(cmd.filters[i].filter, cmd.filters[i].handler)
		}
	}
	if anySubscribeFailed(results) {
		cmd.token.complete(ErrSubscriptionFailed)
		return
	}
	cmd.token.complete(nil)
}

func (s *readyState) resolveUnsuback(ctx *Context, p *packets.UnsubackPacket) {
	cmd, ok := ctx.pendingUnsubscribes[p.PacketID]
	if !ok {
		return
	}
	ctx.packetIDs.release(p.PacketID)
	delete(ctx.pendingUnsubscribes, p.PacketID)

	results := resolveUnsubscribeAck(ctx.protocolVersion, cmd.filters, p.ReasonCodes)
	for i, r := range results {
		if r.Success {
			ctx.routes.remove(cmd.filters[i])
		}
	}
	if anySubscribeFailed(results) {
		cmd.token.complete(ErrSubscriptionFailed)
		return
	}
	cmd.token.complete(nil)
}

func (s *readyState) handleIncomingPublish(ctx *Context, p *packets.PublishPacket) {
	msg := Message{
		Topic:      p.Topic,
		Payload:    p.Payload,
		QoS:        QoS(p.QoS),
		Retained:   p.Retain,
		Duplicate:  p.Dup,
		Properties: toPublicProperties(p.Properties),
	}

	switch p.QoS {
	case 0:
		ctx.dispatchMessage(msg)

	case 1:
		if _, dup := ctx.incomingPacketIDs[p.PacketID]; dup {
			ctx.logger.Debug("duplicate QoS1 publish dropped", "packet_id", p.PacketID)
			return
		}
		ctx.incomingPacketIDs[p.PacketID] = struct{}{}
		ctx.dispatchMessage(msg)
		_ = ctx.send(&packets.PubackPacket{PacketID: p.PacketID, Version: ctx.protocolVersion})
		delete(ctx.incomingPacketIDs, p.PacketID)

	case 2:
		if _, dup := ctx.incomingPacketIDs[p.PacketID]; dup {
			ctx.logger.Debug("duplicate QoS2 publish dropped", "packet_id", p.PacketID)
			return
		}
		ctx.incomingPacketIDs[p.PacketID] = struct{}{}
		ctx.pendingIncomingQoS2[p.PacketID] = msg
		_ = ctx.send(&packets.PubrecPacket{PacketID: p.PacketID, Version: ctx.protocolVersion})
	}
}

func (s *readyState) onSocketDisconnected(ctx *Context, wasGraceful bool) transition {
	return goTo(newDisconnectedState(false))
}

func (s *readyState) onTick(ctx *Context, now time.Time) transition {
	s.checkKeepalive(ctx, now)
	s.checkPublishTimeouts(ctx, now)
	return stay()
}

func (s *readyState) checkKeepalive(ctx *Context, now time.Time) {
	k := ctx.settings.KeepAlive
	if k <= 0 {
		return
	}
	elapsed := now.Sub(ctx.lastActivity)

	if ctx.pingPending && elapsed >= k+k/2 {
		ctx.logger.Warn("broker unresponsive to PINGREQ, disconnecting")
		ctx.socket.Disconnect(false)
		return
	}
	if !ctx.pingPending && elapsed >= k {
		if err := ctx.send(&packets.PingreqPacket{}); err == nil {
			ctx.pingPending = true
			ctx.recordActivity()
		}
	}
}

func (s *readyState) checkPublishTimeouts(ctx *Context, now time.Time) {
	for id, sentAt := range ctx.publishSentTimes {
		if now.Sub(sentAt) < publishTimeout {
			continue
		}
		delete(ctx.publishSentTimes, id)
		if cmd, ok := ctx.pendingPublishes[id]; ok {
			ctx.packetIDs.release(id)
			delete(ctx.pendingPublishes, id)
			cmd.token.complete(ErrPublishTimeout)
		}
	}
}

func publishPacketFromCommand(ctx *Context, c *publishCommand) *packets.PublishPacket {
	return &packets.PublishPacket{
		Dup:        c.dup,
		QoS:        c.qos,
		Retain:     c.retained,
		Topic:      c.topic,
		PacketID:   c.packetID,
		Payload:    c.payload,
		Properties: toInternalProperties(c.properties),
		Version:    ctx.protocolVersion,
	}
}

// countingBuffer is a minimal io.Writer that only counts bytes, used to
// size-check a publish before actually sending it.
type countingBuffer struct{ n int }

func (b *countingBuffer) Write(p []byte) (int, error) {
	b.n += len(p)
	return len(p), nil
}

var _ = binary.BigEndian
