// Package auth provides concrete reactormq.CredentialsProvider and
// reactormq.Authenticator implementations: plain username/password and a
// SCRAM-SHA-256 enhanced authenticator for MQTT v5.0.
package auth

// StaticCredentials implements reactormq.CredentialsProvider for a fixed
// username/password pair, for callers that want a provider value rather
// than using reactormq.WithCredentials directly.
type StaticCredentials struct {
	Username string
	Password string
}

// Credentials implements reactormq.CredentialsProvider.
func (c StaticCredentials) Credentials() (string, string) {
	return c.Username, c.Password
}
