package common

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestSetDebugLevel(t *testing.T) {
	// Test cases
	tests := []struct {
		name     string
		dbgLvl   DbgLevel
		expected DbgLevel
	}{
		{
			name:     "Test case 1",
			dbgLvl:   DbgLvlDebug,
			expected: DbgLvlDebug,
		},
		{
			name:     "Test case 2",
			dbgLvl:   DbgLvlInfo,
			expected: DbgLvlInfo,
		},
		{
			name:     "Test case 3",
			dbgLvl:   DbgLvlDebug5,
			expected: DbgLvlDebug5,
		},
	}

	// Run tests
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			SetDebugLevel(test.dbgLvl)
			if debugLevel != test.expected {
				t.Errorf("Expected debug level %v, but got %v", test.expected, debugLevel)
			}
		})
	}
	SetDebugLevel(DbgLvlInfo)
}

func TestGetDebugLevel(t *testing.T) {
	expected := debugLevel
	result := GetDebugLevel()
	if result != expected {
		t.Errorf("Expected debug level %v, but got %v", expected, result)
	}
}

func TestSetDebugLevelFromString(t *testing.T) {
	defer SetDebugLevel(DbgLvlInfo)

	tests := []struct {
		input    string
		expected DbgLevel
		ok       bool
	}{
		{"info", DbgLvlInfo, true},
		{"DEBUG", DbgLvlDebug1, true},
		{" debug3 ", DbgLvlDebug3, true},
		{"debug5", DbgLvlDebug5, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if ok := SetDebugLevelFromString(tt.input); ok != tt.ok {
				t.Fatalf("SetDebugLevelFromString(%q) = %v, want %v", tt.input, ok, tt.ok)
			}
			if GetDebugLevel() != tt.expected {
				t.Errorf("level = %v, want %v", GetDebugLevel(), tt.expected)
			}
		})
	}

	SetDebugLevel(DbgLvlDebug2)
	if SetDebugLevelFromString("verbose") {
		t.Errorf("expected unknown level to be rejected")
	}
	if GetDebugLevel() != DbgLvlDebug2 {
		t.Errorf("unknown level must not change the current level")
	}
}

func TestDebugMsg(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	defer SetDebugLevel(DbgLvlInfo)

	exited := 0
	exitFunc = func(code int) { exited = code }
	defer func() { exitFunc = defaultExit }()

	SetDebugLevel(DbgLvlInfo)
	DebugMsg(DbgLvlDebug3, "hidden %d", 1)
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug message logged below its level: %q", buf.String())
	}

	DebugMsg(DbgLvlInfo, "visible %d", 2)
	if !strings.Contains(buf.String(), "visible 2") {
		t.Errorf("info message not logged: %q", buf.String())
	}

	SetDebugLevel(DbgLvlDebug3)
	DebugMsg(DbgLvlDebug3, "now shown")
	if !strings.Contains(buf.String(), "now shown") {
		t.Errorf("debug message not logged at its level: %q", buf.String())
	}

	DebugMsg(DbgLvlFatal, "boom")
	if exited != 1 {
		t.Errorf("fatal message should exit with 1, got %d", exited)
	}
}
