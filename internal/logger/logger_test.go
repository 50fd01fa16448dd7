package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsAndPrefixes(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWithWriters(&out, &errOut)

	l.Info("opened %s", "s1")
	l.Warn("slow generator")
	l.Error("commit failed: %v", "boom")
	l.Event("choice", "s1", "left")

	if !strings.Contains(out.String(), "[KW-INFO] opened s1") {
		t.Errorf("missing info line in %q", out.String())
	}
	if !strings.Contains(out.String(), "[KW-WARN] slow generator") {
		t.Errorf("missing warn line in %q", out.String())
	}
	if !strings.Contains(out.String(), "[EVENT:choice] session:s1 | left") {
		t.Errorf("missing event line in %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[KW-ERROR] commit failed: boom") {
		t.Errorf("missing error line in %q", errOut.String())
	}
	if strings.Contains(out.String(), "KW-ERROR") {
		t.Error("errors leaked to stdout")
	}
}
