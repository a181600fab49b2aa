package emit

import "strings"

// normalize is the emitter's post-pass over generated text: it collapses
// runs of blank lines down to one and guarantees a trailing newline.
// Generated C source only needs this much editorial cleanup, not the
// token-by-token rewriting a cross-language translator would require.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	joined := strings.Join(out, "\n")
	if !strings.HasSuffix(joined, "\n") {
		joined += "\n"
	}
	return joined
}
