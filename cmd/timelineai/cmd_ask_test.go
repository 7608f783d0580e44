package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/timelineai/internal/reducer"
	"github.com/user/timelineai/internal/timeline/timelinetest"
)

func TestPrintStateTimeline(t *testing.T) {
	resp := timelinetest.Nokia()
	var buf bytes.Buffer

	printState(&buf, reducer.State{Topic: "Nokia", Events: resp.Events, Mode: reducer.ModeTimeline, Connection: reducer.Done})

	out := buf.String()
	assert.Contains(t, out, "Timeline: Nokia")
	for _, ev := range resp.Events {
		assert.Contains(t, out, ev.Title)
	}
}

func TestPrintStateChat(t *testing.T) {
	var buf bytes.Buffer
	printState(&buf, reducer.State{ChatText: "Hello there.", Mode: reducer.ModeChat, Connection: reducer.Done})
	assert.Equal(t, "Hello there.\n", buf.String())
}

func TestPrintStateError(t *testing.T) {
	var buf bytes.Buffer
	printState(&buf, reducer.State{Err: "boom", Connection: reducer.Errored})
	assert.Equal(t, "error: boom\n", buf.String())
}

func TestArgsQuery(t *testing.T) {
	q, err := argsQuery([]string{" nokia", "history "})
	require.NoError(t, err)
	assert.Equal(t, "nokia history", q)

	_, err = argsQuery([]string{"   "})
	assert.Error(t, err)

	_, err = argsQuery([]string{"", "\t"})
	assert.Error(t, err)
}
