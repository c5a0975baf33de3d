package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	line := []byte(`{"Time":"2024-01-01T10:00:00Z","Action":"fail","Package":"example.com/pkg","Test":"TestA","Elapsed":1.25}`)

	event, err := ParseEvent(line)
	require.NoError(t, err)
	assert.Equal(t, ActionFail, event.Action)
	assert.Equal(t, "example.com/pkg", event.Package)
	assert.Equal(t, "TestA", event.Test)
	assert.Equal(t, 1250*time.Millisecond, event.ElapsedDuration())
	assert.True(t, event.IsTerminal())
}

func TestParseEvent_Errors(t *testing.T) {
	_, err := ParseEvent([]byte("ok  \texample.com/pkg\t0.01s"))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`{"msg":"hello"}`))
	assert.ErrorIs(t, err, ErrNoAction)
}

func TestTestEvent_IsTerminal(t *testing.T) {
	for action, want := range map[string]bool{
		ActionRun:    false,
		ActionOutput: false,
		ActionPass:   true,
		ActionFail:   true,
		ActionSkip:   true,
	} {
		assert.Equal(t, want, TestEvent{Action: action}.IsTerminal(), action)
	}
}
