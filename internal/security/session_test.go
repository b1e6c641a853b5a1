package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionIDFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		assert.True(t, ValidSessionID(id), "generated id %q must validate", id)
		assert.False(t, seen[id], "session ids must not repeat")
		seen[id] = true
	}
}

func TestValidSessionID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"well formed", "sess_0123456789abcdef0123456789abcdef", true},
		{"empty", "", false},
		{"missing prefix", "0123456789abcdef0123456789abcdef", false},
		{"wrong prefix", "sid_0123456789abcdef0123456789abcdef", false},
		{"too short", "sess_abcdef", false},
		{"too long", "sess_0123456789abcdef0123456789abcdef00", false},
		{"uppercase hex", "sess_0123456789ABCDEF0123456789ABCDEF", false},
		{"non hex", "sess_0123456789abcdef0123456789abcdeg", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSessionID(tt.id))
		})
	}
}

func TestEnsureSessionID(t *testing.T) {
	valid := NewSessionID()
	assert.Equal(t, valid, EnsureSessionID(valid))

	// Anything unrecognized is discarded and replaced.
	replaced := EnsureSessionID("sess_<script>")
	assert.NotEqual(t, "sess_<script>", replaced)
	assert.True(t, ValidSessionID(replaced))
}
