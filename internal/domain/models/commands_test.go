package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CommandType
		args []string
	}{
		{name: "daily with args", in: "/harian B-2026-001 3 50 45 panas", want: CommandDaily, args: []string{"b-2026-001", "3", "50", "45", "panas"}},
		{name: "english alias", in: "/eggs b-2026-001 300", want: CommandEggs, args: []string{"b-2026-001", "300"}},
		{name: "no slash still parses", in: "status", want: CommandStatus},
		{name: "unknown", in: "/foo 1", want: CommandUnknown, args: []string{"1"}},
		{name: "blank", in: "   ", want: CommandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ParseCommand(tt.in)
			assert.Equal(t, tt.want, cmd.Type)
			assert.Equal(t, tt.args, cmd.Args)
		})
	}
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("  /status"))
	assert.False(t, IsCommand("berapa telur hari ini?"))
}
