// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package terminal

import (
	"bytes"
	"strings"
	"testing"
)

func TestLinesFor(t *testing.T) {
	tests := []struct{ length, width, want int }{
		{0, 80, 2},
		{10, 80, 2},
		{80, 80, 2},
		{81, 80, 3},
		{200, 40, 6},
	}
	for _, tt := range tests {
		if got := linesFor(tt.length, tt.width); got != tt.want {
			t.Errorf("linesFor(%d, %d) = %d, want %d", tt.length, tt.width, got, tt.want)
		}
	}
}

func TestClearLines(t *testing.T) {
	var buf bytes.Buffer
	clearLines(&buf, 100, 80)
	if got := strings.Count(buf.String(), "\x1b[2K"); got != 3 {
		t.Errorf("cleared %d lines, want 3", got)
	}
	if got := strings.Count(buf.String(), "\x1b[1A"); got != 2 {
		t.Errorf("moved up %d lines, want 2", got)
	}
}
