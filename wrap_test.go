package wreckage

import (
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monoMetric gives every rune the same width.
type monoMetric float64

func (m monoMetric) Measure(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * float64(m)
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"empty", "", 100, nil},
		{"only whitespace", " \n\t ", 100, nil},
		{"one line", "hello world", 200, []string{"hello world"}},
		{"exact fit", "hello world", 110, []string{"hello world"}},
		{"breaks", "hello world", 100, []string{"hello", "world"}},
		{"collapses whitespace", "  a \n\n b\tc  ", 50, []string{"a b c"}},
		{"greedy", "aa bb cc dd ee", 50, []string{"aa bb", "cc dd", "ee"}},
		{"long word kept whole", "a supercalifragilistic b", 50, []string{"a", "supercalifragilistic", "b"}},
		{"long first word", "supercalifragilistic", 10, []string{"supercalifragilistic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.width, monoMetric(10))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Wrap(%q, %v) mismatch (-want +got):\n%s", tt.text, tt.width, diff)
			}
		})
	}
}

func TestWrapLinesFit(t *testing.T) {
	text := "The quick brown fox jumps over the extraordinarily lazy dog while the deliverable timeline slips"
	metric := monoMetric(7)
	for _, width := range []float64{30, 70, 100, 180, 400} {
		lines := Wrap(text, width, metric)
		require.NotEmpty(t, lines)
		for _, line := range lines {
			if metric.Measure(line) > width {
				assert.NotContains(t, line, " ", "only single words may overflow (width %v)", width)
			}
		}
	}
}

func TestFaceMetric(t *testing.T) {
	f, err := DefaultFont()
	require.NoError(t, err)

	m := NewFaceMetric(f, 28)
	assert.Zero(t, m.Measure(""))
	assert.Greater(t, m.Measure("hello world"), m.Measure("hello"))

	lines := Wrap("hello world hello world hello world", m.Measure("hello world"), m)
	assert.Equal(t, []string{"hello world", "hello world", "hello world"}, lines)
}
