package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ScramAuthenticator implements reactormq.Authenticator for SCRAM-SHA-256,
// driving the AUTH packet challenge/response loop during Connecting.
type ScramAuthenticator struct {
	Username string
	Password string

	clientNonce string
	serverNonce string
	authMsg     string
}

// Credentials implements reactormq.CredentialsProvider; SCRAM carries the
// username in its own messages, so CONNECT's username/password fields stay
// empty.
func (s *ScramAuthenticator) Credentials() (string, string) { return "", "" }

// Method implements reactormq.Authenticator.
func (s *ScramAuthenticator) Method() string { return "SCRAM-SHA-256" }

// InitialData builds the client-first-message: n,,n=user,r=nonce.
func (s *ScramAuthenticator) InitialData() ([]byte, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	s.clientNonce = base64.RawStdEncoding.EncodeToString(nonce)

	msg := fmt.Sprintf("n,,n=%s,r=%s", s.Username, s.clientNonce)
	s.authMsg = msg[3:] // bare message n=user,r=nonce, kept for the signature calc
	return []byte(msg), nil
}

// HandleChallenge processes the server-first-message and returns the
// client-final-message, implementing reactormq.Authenticator.
func (s *ScramAuthenticator) HandleChallenge(data []byte, reasonCode uint8) ([]byte, error) {
	parts := parseSCRAMMessage(string(data))

	r, ok := parts["r"]
	if !ok || !strings.HasPrefix(r, s.clientNonce) {
		return nil, fmt.Errorf("auth: invalid server nonce")
	}
	s.serverNonce = r

	saltStr, ok := parts["s"]
	if !ok {
		return nil, fmt.Errorf("auth: missing salt")
	}
	salt, err := base64.StdEncoding.DecodeString(saltStr)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid salt: %w", err)
	}

	iterStr, ok := parts["i"]
	if !ok {
		return nil, fmt.Errorf("auth: missing iterations")
	}
	var iter int
	if _, err := fmt.Sscanf(iterStr, "%d", &iter); err != nil || iter < 1 {
		return nil, fmt.Errorf("auth: invalid iterations")
	}

	// AuthMessage = client-first-message-bare + "," + server-first-message + "," + client-final-message-without-proof
	s.authMsg += "," + string(data) + ",c=biws,r=" + s.serverNonce

	saltedPassword := pbkdf2.Key([]byte(s.Password), salt, iter, 32, sha256.New)
	clientKey := hmacSum(saltedPassword, []byte("Client Key"))
	storedKey := sha256.Sum256(clientKey)
	clientSignature := hmacSum(storedKey[:], []byte(s.authMsg))

	clientProof := make([]byte, len(clientKey))
	for i := range clientKey {
		clientProof[i] = clientKey[i] ^ clientSignature[i]
	}

	finalMsg := fmt.Sprintf("c=biws,r=%s,p=%s", s.serverNonce, base64.StdEncoding.EncodeToString(clientProof))
	return []byte(finalMsg), nil
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func parseSCRAMMessage(msg string) map[string]string {
	m := make(map[string]string)
	for _, p := range strings.Split(msg, ",") {
		if len(p) > 2 && p[1] == '=' {
			m[string(p[0])] = p[2:]
		}
	}
	return m
}
