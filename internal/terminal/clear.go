// Package terminal provides prompt and line-clearing helpers for interactive commands.
package terminal

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"
)

// ClearPreviousLines erases the lines taken by textLength characters of
// prompt and input, plus the empty line left by Enter.
func ClearPreviousLines(textLength int) {
	clearLines(os.Stdout, textLength, width())
}

func width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func linesFor(textLength, termWidth int) int {
	n := int(math.Ceil(float64(textLength) / float64(termWidth)))
	if n < 1 {
		n = 1
	}
	return n + 1
}

func clearLines(w io.Writer, textLength, termWidth int) {
	n := linesFor(textLength, termWidth)
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
