package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	SetColors(false)
	defer func() {
		SetLogOutput(nil)
		SetColors(true)
		SetLogLevel(LevelInfo)
	}()

	SetLogLevel(LevelWarn)
	DebugLog("debug %d", 1)
	InfoLog("info %d", 2)
	WarnLog("warn %d", 3)
	ErrorLog("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("lines below warn level leaked: %q", out)
	}
	if !strings.Contains(out, "[WARN]  warn 3") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] error 4") {
		t.Errorf("missing error line: %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("colors should be disabled: %q", out)
	}
}

func TestQuietMode(t *testing.T) {
	defer SetLogLevel(LevelInfo)

	SetLogLevel(LevelInfo)
	if IsQuiet() {
		t.Error("info level should not be quiet")
	}
	SetQuiet(true)
	if !IsQuiet() {
		t.Error("SetQuiet(true) should make IsQuiet() true")
	}
	SetVerbose(true)
	if IsQuiet() {
		t.Error("verbose should override quiet")
	}
}
