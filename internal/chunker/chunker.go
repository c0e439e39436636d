package chunker

import "unicode/utf8"

const (
	// DefaultSize is the fragment length used for volume analysis.
	DefaultSize = 3500
	// SummarySize is the fragment length used by the summary plan.
	SummarySize = 1500
)

// Config controls chunking behavior.
type Config struct {
	Size int // Maximum fragment length in characters (runes).
}

// DefaultConfig returns the volume analysis defaults.
func DefaultConfig() Config {
	return Config{Size: DefaultSize}
}

// SummaryConfig returns the defaults for the single-prompt summary plan.
func SummaryConfig() Config {
	return Config{Size: SummarySize}
}

// Chunk is one fragment of recognized text, ready for dispatch.
type Chunk struct {
	Index int    // 0-based position in the sequence
	Text  string // Fragment content
}

// Split cuts text into consecutive, non-overlapping fragments of cfg.Size
// characters. The last fragment may be shorter. Joining the fragments in
// order yields text exactly. Empty text yields no fragments.
func Split(text string, cfg Config) []Chunk {
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if text == "" {
		return nil
	}

	chunks := make([]Chunk, 0, utf8.RuneCountInString(text)/cfg.Size+1)
	start := 0
	runes := 0
	for i := range text {
		if runes == cfg.Size {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: text[start:i]})
			start = i
			runes = 0
		}
		runes++
	}
	chunks = append(chunks, Chunk{Index: len(chunks), Text: text[start:]})
	return chunks
}

// Texts returns the fragment contents in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
