package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_Scenario(t *testing.T) {
	chunks := Split("AB CD EF", Config{Size: 3})

	want := []string{"AB ", "CD ", "EF"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), Texts(chunks))
	}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk %d: expected %q, got %q", i, w, chunks[i].Text)
		}
		if chunks[i].Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, chunks[i].Index)
		}
	}
	if got := strings.Join(Texts(chunks), ""); got != "AB CD EF" {
		t.Errorf("expected concatenation to reconstruct input, got %q", got)
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	chunks := Split("", DefaultConfig())
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestSplit_Properties(t *testing.T) {
	texts := []string{
		"a",
		"exactly six",
		strings.Repeat("Reglamento Conjunto ", 400),
		strings.Repeat("x", 3500),
		strings.Repeat("x", 3501),
		"Sección 2.1 — Disposiciones generales: ¿Cuál es el alcance? Año, señal, acción.",
	}
	sizes := []int{1, 2, 3, 7, 100, 1500, 3500, 10000}

	for _, text := range texts {
		total := utf8.RuneCountInString(text)
		for _, n := range sizes {
			chunks := Split(text, Config{Size: n})

			if got := strings.Join(Texts(chunks), ""); got != text {
				t.Fatalf("size %d: concatenation does not reconstruct input", n)
			}

			wantCount := (total + n - 1) / n
			if len(chunks) != wantCount {
				t.Errorf("size %d, len %d: expected %d chunks, got %d", n, total, wantCount, len(chunks))
			}

			for i, c := range chunks[:len(chunks)-1] {
				if l := utf8.RuneCountInString(c.Text); l != n {
					t.Errorf("size %d: chunk %d has length %d, want %d", n, i, l, n)
				}
			}

			wantLast := total % n
			if wantLast == 0 {
				wantLast = n
			}
			last := chunks[len(chunks)-1]
			if l := utf8.RuneCountInString(last.Text); l != wantLast {
				t.Errorf("size %d: last chunk has length %d, want %d", n, l, wantLast)
			}
		}
	}
}

func TestSplit_NeverSplitsRunes(t *testing.T) {
	text := strings.Repeat("ñá", 10)
	for _, c := range Split(text, Config{Size: 3}) {
		if !utf8.ValidString(c.Text) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", c.Index, c.Text)
		}
	}
}

func TestSplit_DefaultConfigFallback(t *testing.T) {
	text := strings.Repeat("z", DefaultSize+1)
	chunks := Split(text, Config{})
	if len(chunks) != 2 {
		t.Fatalf("expected zero config to use default size and produce 2 chunks, got %d", len(chunks))
	}
	if len(chunks[1].Text) != 1 {
		t.Errorf("expected last chunk of length 1, got %d", len(chunks[1].Text))
	}
}

func TestSummaryConfig(t *testing.T) {
	if SummaryConfig().Size != 1500 {
		t.Errorf("expected summary size 1500, got %d", SummaryConfig().Size)
	}
	if DefaultConfig().Size != 3500 {
		t.Errorf("expected default size 3500, got %d", DefaultConfig().Size)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 tokens for empty text")
	}
	if EstimateTokens("a") != 1 {
		t.Errorf("expected minimum of 1 token, got %d", EstimateTokens("a"))
	}
	words := strings.Repeat("word ", 300)
	if got := EstimateTokens(words); got < 300 {
		t.Errorf("expected at least 300 tokens for 300 words, got %d", got)
	}
	dense := strings.Repeat("x", 4000)
	if got := EstimateTokens(dense); got != 1000 {
		t.Errorf("expected 1000 tokens for 4000 dense chars, got %d", got)
	}
}
