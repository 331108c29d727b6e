package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLoggerOutput(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Step("REPRODUCE", "Generating reproduction script for %s", "demo-1")
	l.Success("Wrote %s", "reproduce_issue.py")
	l.Failure("Could not read %s", "a.py")
	l.Raw("transcript line")

	out := buf.String()
	for _, want := range []string{
		"[STEP: REPRODUCE]",
		"Generating reproduction script for demo-1",
		"✔ Wrote reproduce_issue.py",
		"✖ Could not read a.py",
		"transcript line",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
