package reactormq

// CredentialsProvider supplies the username/password pair a CONNECT packet
// carries. Implementations may return empty strings for either field to
// omit the corresponding flag.
type CredentialsProvider interface {
	Credentials() (username, password string)
}

// staticCredentials is the CredentialsProvider used when WithCredentials is
// configured directly rather than through a custom provider.
type staticCredentials struct {
	username, password string
}

func (s staticCredentials) Credentials() (string, string) {
	return s.username, s.password
}

// Authenticator extends CredentialsProvider with MQTT v5.0 enhanced
// authentication: a named method, optional initial authentication data sent
// with CONNECT, and a challenge/response step driven by AUTH packets whose
// reason code is ContinueAuthentication.
type Authenticator interface {
	// Method returns the Authentication Method property value (e.g. "SCRAM-SHA-256").
	Method() string

	// InitialData returns the Authentication Data to send with CONNECT, if any.
	InitialData() ([]byte, error)

	// HandleChallenge computes the client's response to a server challenge.
	// reasonCode is the AUTH packet's reason code (ContinueAuthentication or
	// ReAuthenticate). It returns the Authentication Data to send back.
	HandleChallenge(serverData []byte, reasonCode uint8) ([]byte, error)
}
