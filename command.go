package reactormq

// command is the internal representation of a user-initiated operation
// queued onto the Reactor. Each variant carries the token that must be
// resolved exactly once as a result of processing it.
type command interface {
	isCommand()
}

type connectCommand struct {
	cleanSession bool
	token        *token
}

type publishCommand struct {
	topic      string
	payload    []byte
	qos        uint8
	retained   bool
	properties *Properties
	token      *token

	// dup and packetID are set internally on retransmission; zero value on
	// first send.
	dup      bool
	packetID uint16
}

type subscribeCommand struct {
	filters []subscribeFilter
	token   *token
}

type subscribeFilter struct {
	filter  string
	qos     uint8
	opts    uint8
	handler MessageHandler
}

type unsubscribeCommand struct {
	filters []string
	token   *token
}

type disconnectCommand struct {
	opts  DisconnectOptions
	token *token
}

func (connectCommand) isCommand()     {}
func (publishCommand) isCommand()     {}
func (subscribeCommand) isCommand()   {}
func (unsubscribeCommand) isCommand() {}
func (disconnectCommand) isCommand()  {}
