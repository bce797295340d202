package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticCredentials(t *testing.T) {
	c := StaticCredentials{Username: "bob", Password: "hunter2"}
	u, p := c.Credentials()
	assert.Equal(t, "bob", u)
	assert.Equal(t, "hunter2", p)
}
