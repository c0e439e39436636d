// Package report accumulates per-topic answers and writes them to output
// files.
package report

import (
	"strconv"
	"strings"
)

// DefaultLabel prefixes every entry header. Legacy outputs used
// "🔍 Fragmento"; pass that as the label to match them.
const DefaultLabel = "Fragmento"

// Entry is one answer, tagged with the 0-based index of its fragment.
type Entry struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

// Accumulator collects the answers for one output topic in dispatch order.
type Accumulator struct {
	Topic string
	Label string

	entries []Entry
	buf     strings.Builder
}

func NewAccumulator(topic, label string) *Accumulator {
	if label == "" {
		label = DefaultLabel
	}
	return &Accumulator{Topic: topic, Label: label}
}

// Add appends "\n{Label} {index+1}:\n{answer}\n".
func (a *Accumulator) Add(index int, answer string) {
	a.entries = append(a.entries, Entry{Index: index, Answer: answer})
	a.buf.WriteString("\n")
	a.buf.WriteString(a.Label)
	a.buf.WriteString(" ")
	a.buf.WriteString(strconv.Itoa(index + 1))
	a.buf.WriteString(":\n")
	a.buf.WriteString(answer)
	a.buf.WriteString("\n")
}

func (a *Accumulator) String() string {
	return a.buf.String()
}

func (a *Accumulator) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

func (a *Accumulator) Len() int {
	return len(a.entries)
}
