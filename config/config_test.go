package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[ic]
enabled = false
polymorphic-capacity = 8
trace = true

[megamorphic]
max-entries = 512

[codelog]
path = "code.db"
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.IC.Enabled {
		t.Error("ic enabled = true, want false")
	}
	if c.IC.PolymorphicCapacity != 8 {
		t.Errorf("polymorphic capacity = %d, want 8", c.IC.PolymorphicCapacity)
	}
	if !c.IC.Trace {
		t.Error("ic trace = false, want true")
	}
	if c.Megamorphic.MaxEntries != 512 {
		t.Errorf("max entries = %d, want 512", c.Megamorphic.MaxEntries)
	}
	abs, _ := filepath.Abs(dir)
	if got := c.CodeLogPath(); got != filepath.Join(abs, "code.db") {
		t.Errorf("code log path = %q, want %q", got, filepath.Join(abs, "code.db"))
	}

	ic := c.IsolateConfig()
	if ic.Enabled || ic.PolymorphicCapacity != 8 || !ic.Trace || ic.MegamorphicMaxEntries != 512 {
		t.Errorf("isolate config = %+v", ic)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[ic]
trace = true
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !c.IC.Enabled {
		t.Error("ic enabled = false, want default true")
	}
	if c.IC.PolymorphicCapacity != 4 {
		t.Errorf("polymorphic capacity = %d, want default 4", c.IC.PolymorphicCapacity)
	}
	if c.Megamorphic.MaxEntries != 0 {
		t.Errorf("max entries = %d, want default 0", c.Megamorphic.MaxEntries)
	}
	if c.CodeLogPath() != "" {
		t.Errorf("code log path = %q, want empty", c.CodeLogPath())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"capacity too small", "[ic]\npolymorphic-capacity = 0\n", "polymorphic capacity"},
		{"capacity too large", "[ic]\npolymorphic-capacity = 17\n", "polymorphic capacity"},
		{"negative max entries", "[megamorphic]\nmax-entries = -1\n", "max entries"},
		{"unknown key", "[ic]\nwarmup = 3\n", "unknown key"},
		{"syntax", "[ic\n", "parse error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
			if !strings.Contains(err.Error(), FileName) {
				t.Errorf("Expected error naming %s, got %v", FileName, err)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "cannot read") {
		t.Errorf("Expected cannot read error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("[ic]\npolymorphic-capacity = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if c.IC.PolymorphicCapacity != 2 {
		t.Errorf("polymorphic capacity = %d, want 2", c.IC.PolymorphicCapacity)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[ic]\npolymorphic-capacity = 6\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("Expected config, got nil")
	}
	if c.IC.PolymorphicCapacity != 6 {
		t.Errorf("polymorphic capacity = %d, want 6", c.IC.PolymorphicCapacity)
	}
	abs, _ := filepath.Abs(root)
	if c.Dir != abs {
		t.Errorf("dir = %q, want %q", c.Dir, abs)
	}
}
