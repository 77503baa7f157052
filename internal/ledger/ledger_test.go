package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger(t *testing.T) {
	l := New()
	l.Add("markup exceeds ceiling")
	l.Add("markup exceeds ceiling")
	l.Add(Accepted)
	l.Add("already owned")

	assert.Equal(t, 2, l.Count("markup exceeds ceiling"))
	assert.Equal(t, 0, l.Count("never seen"))
	assert.Equal(t, 4, l.Total())

	assert.Equal(t, []Entry{
		{Reason: "markup exceeds ceiling", Count: 2},
		{Reason: Accepted, Count: 1},
		{Reason: "already owned", Count: 1},
	}, l.Snapshot())

	m := l.Map()
	m["accepted"] = 99
	assert.Equal(t, 1, l.Count(Accepted), "Map returns a copy")

	l.Reset()
	assert.Equal(t, 0, l.Total())
	assert.Empty(t, l.Snapshot())
}

func TestNilLedger(t *testing.T) {
	var l *Ledger
	l.Add("ignored")
	assert.Equal(t, 0, l.Count("ignored"))
	assert.Equal(t, 0, l.Total())
	assert.Nil(t, l.Snapshot())
	assert.Empty(t, l.Map())
}
