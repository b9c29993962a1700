package notifysvc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Success("Login successful!")
	c.Error("Invalid credentials")
	assert.Equal(t, "✓ Login successful!\n✗ Invalid credentials\n", buf.String())
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Success("saved")
	r.Error("failed")

	assert.Equal(t, []Notice{{LevelSuccess, "saved"}, {LevelError, "failed"}}, r.Drain())
	assert.Empty(t, r.Drain())
}
