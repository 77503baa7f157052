// Package ledger counts why candidates were accepted or rejected during a run.
package ledger

import (
	"sort"
)

// Reserved reasons
const (
	Accepted = "accepted"
	Error    = "error"
)

// Ledger maps reason to count. One ledger belongs to one run and is written
// by a single goroutine.
type Ledger struct {
	counts map[string]int
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{counts: make(map[string]int)}
}

// Add increments reason by one
func (l *Ledger) Add(reason string) {
	if l == nil {
		return
	}
	l.counts[reason]++
}

// Count returns the count for reason
func (l *Ledger) Count(reason string) int {
	if l == nil {
		return 0
	}
	return l.counts[reason]
}

// Total returns the sum of all counts
func (l *Ledger) Total() int {
	if l == nil {
		return 0
	}
	total := 0
	for _, c := range l.counts {
		total += c
	}
	return total
}

// Reset clears every count
func (l *Ledger) Reset() {
	l.counts = make(map[string]int)
}

// Entry is one reason and its count
type Entry struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// Snapshot returns entries sorted by count descending, then reason
func (l *Ledger) Snapshot() []Entry {
	if l == nil {
		return nil
	}
	entries := make([]Entry, 0, len(l.counts))
	for r, c := range l.counts {
		entries = append(entries, Entry{Reason: r, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Reason < entries[j].Reason
	})
	return entries
}

// Map returns a copy of the counts
func (l *Ledger) Map() map[string]int {
	out := make(map[string]int)
	if l == nil {
		return out
	}
	for r, c := range l.counts {
		out[r] = c
	}
	return out
}
