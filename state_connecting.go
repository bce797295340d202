package reactormq

import (
	"time"

	"github.com/reactormq/reactormq/internal/packets"
)

// connectingState owns the socket dial and the CONNECT/CONNACK (and,
// for MQTT v5.0 enhanced auth, the AUTH challenge/response) handshake.
type connectingState struct {
	baseState
	cleanSession     bool
	token            *token
	handshakeDeadline time.Time
}

func newConnectingState(cleanSession bool, tok *token) *connectingState {
	return &connectingState{cleanSession: cleanSession, token: tok}
}

func (s *connectingState) name() string { return "Connecting" }

func (s *connectingState) onEnter(ctx *Context) transition {
	if ctx.socket == nil {
		ctx.socket = ctx.socketFactory.NewSocket()
	}
	if err := ctx.socket.Connect(ctx.settings.dialAddr()); err != nil {
		s.token.complete(err)
		return goTo(newDisconnectedState(false))
	}
	return stay()
}

func (s *connectingState) onSocketConnected(ctx *Context, err error) transition {
	if err != nil {
		s.token.complete(err)
		return goTo(newDisconnectedState(false))
	}

	clientID := ctx.assignedClientID
	if clientID == "" {
		clientID = ctx.settings.ClientID
	}

	pkt := &packets.ConnectPacket{
		ProtocolName:  "MQTT",
		ProtocolLevel: ctx.protocolVersion,
		CleanSession:  s.cleanSession,
		ClientID:      clientID,
		KeepAlive:     uint16(ctx.settings.KeepAlive / time.Second),
	}

	if ctx.settings.Credentials != nil {
		username, password := ctx.settings.Credentials.Credentials()
		if username != "" {
			pkt.UsernameFlag = true
			pkt.Username = username
		}
		if password != "" {
			pkt.PasswordFlag = true
			pkt.Password = password
		}
	}

	if ctx.settings.will != nil {
		w := ctx.settings.will
		pkt.WillFlag = true
		pkt.WillQoS = w.QoS
		pkt.WillRetain = w.Retained
		pkt.WillTopic = w.Topic
		pkt.WillMessage = w.Payload
		if ctx.protocolVersion >= ProtocolV50 {
			pkt.WillProperties = toInternalProperties(w.Properties)
		}
	}

	if ctx.protocolVersion >= ProtocolV50 {
		props := &packets.Properties{}
		if ctx.settings.SessionExpirySet {
			props.SessionExpiryInterval = ctx.settings.SessionExpiryInterval
			props.Presence |= packets.PresSessionExpiryInterval
		}
		if ctx.settings.RequestProblemInformation {
			props.RequestProblemInformation = 1
			props.Presence |= packets.PresRequestProblemInformation
		}
		if ctx.settings.RequestResponseInformation {
			props.RequestResponseInformation = 1
			props.Presence |= packets.PresRequestResponseInformation
		}
		if ctx.settings.TopicAliasMaximum > 0 {
			props.TopicAliasMaximum = ctx.settings.TopicAliasMaximum
			props.Presence |= packets.PresTopicAliasMaximum
		}
		if ctx.settings.ReceiveMaximum > 0 {
			props.ReceiveMaximum = ctx.settings.ReceiveMaximum
			props.Presence |= packets.PresReceiveMaximum
		}
		for k, v := range ctx.settings.ConnectUserProperties {
			props.UserProperties = append(props.UserProperties, packets.UserProperty{Key: k, Value: v})
		}
		if ctx.settings.Authenticator != nil {
			props.AuthenticationMethod = ctx.settings.Authenticator.Method()
			props.Presence |= packets.PresAuthenticationMethod
			if data, aerr := ctx.settings.Authenticator.InitialData(); aerr == nil && len(data) > 0 {
				props.AuthenticationData = data
			}
		}
		pkt.Properties = props
	}

	if sendErr := ctx.send(pkt); sendErr != nil {
		s.token.complete(sendErr)
		return goTo(newDisconnectedState(false))
	}

	s.handshakeDeadline = time.Now().Add(ctx.settings.ConnectTimeout)
	return stay()
}

func (s *connectingState) onDataReceived(ctx *Context, data []byte) transition {
	pkts, err := ctx.feed(data)
	if err != nil {
		s.token.complete(err)
		return goTo(newDisconnectedState(false))
	}

	for _, pkt := range pkts {
		switch p := pkt.(type) {
		case *packets.ConnackPacket:
			if connackSuccess(ctx.protocolVersion, p.ReturnCode) {
				if p.Properties != nil && p.Properties.Presence&packets.PresAssignedClientIdentifier != 0 {
					ctx.assignedClientID = p.Properties.AssignedClientIdentifier
				}
				if !p.SessionPresent {
					ctx.resetSession()
				}
				s.token.complete(nil)
				return goTo(newReadyState())
			}
			s.token.complete(connackError(ctx.protocolVersion, p.ReturnCode))
			return goTo(newDisconnectedState(false))

		case *packets.AuthPacket:
			if ctx.settings.Authenticator == nil {
				s.token.complete(ErrAuthNotSupported)
				return goTo(newDisconnectedState(false))
			}
			switch p.ReasonCode {
			case packets.AuthReasonContinue:
				var serverData []byte
				if p.Properties != nil {
					serverData = p.Properties.AuthenticationData
				}
				respData, aerr := ctx.settings.Authenticator.HandleChallenge(serverData, p.ReasonCode)
				if aerr != nil {
					s.token.complete(aerr)
					return goTo(newDisconnectedState(false))
				}
				resp := &packets.AuthPacket{
					ReasonCode: packets.AuthReasonContinue,
					Version:    ctx.protocolVersion,
					Properties: &packets.Properties{
						AuthenticationMethod: ctx.settings.Authenticator.Method(),
						AuthenticationData:   respData,
						Presence:             packets.PresAuthenticationMethod,
					},
				}
				if sendErr := ctx.send(resp); sendErr != nil {
					s.token.complete(sendErr)
					return goTo(newDisconnectedState(false))
				}
				return stay()
			default:
				s.token.complete(ErrConnectionRefusedByBroker)
				return goTo(newDisconnectedState(false))
			}

		default:
			ctx.logger.Warn("unexpected packet while connecting", "type", pkt.Type())
			s.token.complete(ErrConnectionRefusedByBroker)
			return goTo(newDisconnectedState(false))
		}
	}
	return stay()
}

func (s *connectingState) onSocketDisconnected(ctx *Context, wasGraceful bool) transition {
	s.token.complete(ErrConnectionInterrupted)
	return goTo(newDisconnectedState(false))
}

func (s *connectingState) onTick(ctx *Context, now time.Time) transition {
	if s.handshakeDeadline.IsZero() {
		return stay()
	}
	if now.Before(s.handshakeDeadline) {
		return stay()
	}
	s.token.complete(ErrHandshakeTimeout)
	return goTo(newDisconnectedState(false))
}

func (s *connectingState) handleCommand(ctx *Context, cmd command) transition {
	failCommandToken(cmd, ErrNotConnected)
	return stay()
}

func (s *connectingState) onExit(ctx *Context) {
	select {
	case <-s.token.Done():
	default:
		s.token.complete(ErrConnectionInterrupted)
	}
}

func connackSuccess(version uint8, code uint8) bool {
	return code == 0
}

func connackError(version uint8, code uint8) error {
	if version >= ProtocolV50 {
		return &MqttError{ReasonCode: ReasonCode(code), Message: "connection refused by broker"}
	}
	switch code {
	case packets.ConnRefusedUnacceptableProtocol:
		return ErrUnacceptableProtocolVersion
	case packets.ConnRefusedIdentifierRejected:
		return ErrIdentifierRejected
	case packets.ConnRefusedServerUnavailable:
		return ErrServerUnavailable
	case packets.ConnRefusedBadUsernameOrPassword:
		return ErrBadUsernameOrPassword
	case packets.ConnRefusedNotAuthorized:
		return ErrNotAuthorized
	default:
		return ErrConnectionRefusedByBroker
	}
}
