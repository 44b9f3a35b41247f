package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var b bytes.Buffer

	l := New(&b, false)
	l.Debugf("hidden %v", 1)
	l.Infof("shown %v", 2)
	l.Warnf("careful %v", 3)

	s := b.String()
	if strings.Contains(s, "hidden") {
		t.Errorf("DEBUG line written with debug disabled\n%s", s)
	}

	if !strings.Contains(s, "INFO  shown 2") {
		t.Errorf("missing INFO line\n%s", s)
	}

	if !strings.Contains(s, "WARN  careful 3") {
		t.Errorf("missing WARN line\n%s", s)
	}
}

func TestLoggerDebug(t *testing.T) {
	var b bytes.Buffer

	l := New(&b, true)
	l.Debugf("visible")

	if !strings.Contains(b.String(), "DEBUG visible") {
		t.Errorf("missing DEBUG line\n%s", b.String())
	}
}

func TestLoggerErrorLog(t *testing.T) {
	var b bytes.Buffer

	path := filepath.Join(t.TempDir(), "logs", "error.log")
	l := New(&b, false)
	if err := l.WithErrorLog(path); err != nil {
		t.Fatalf("unexpected error opening error log (%v)", err)
	}

	l.Infof("not an error")
	l.Errorf("sheet %q failed", "Night")

	if err := l.Close(); err != nil {
		t.Fatalf("unexpected error closing logger (%v)", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("error reading error log (%v)", err)
	}

	s := string(data)
	if strings.Contains(s, "not an error") {
		t.Errorf("INFO line copied to error log\n%s", s)
	}

	if !strings.Contains(s, `ERROR sheet "Night" failed`) {
		t.Errorf("ERROR line missing from error log\n%s", s)
	}

	if !strings.Contains(b.String(), `ERROR sheet "Night" failed`) {
		t.Errorf("ERROR line missing from console\n%s", b.String())
	}
}
