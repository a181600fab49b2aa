package ptime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackRecordsDuration(t *testing.T) {
	p := NewPhases()
	require.NoError(t, p.Track("parse", func() error { return nil }))
	report := p.Report()
	assert.Contains(t, report, "parse")
}

func TestTrackPropagatesError(t *testing.T) {
	p := NewPhases()
	want := errors.New("boom")
	err := p.Track("emit", func() error { return want })
	assert.ErrorIs(t, err, want)
}
