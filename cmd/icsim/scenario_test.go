package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/icache/ic"
	"github.com/chazu/icache/interp"
	"github.com/chazu/icache/object"
)

func newIsolate(t *testing.T) (*ic.Isolate, *object.Realm) {
	t.Helper()
	realm := object.NewRealm()
	iso, err := ic.NewIsolate(ic.DefaultConfig(), ic.Options{
		Emitter:   interp.NewEmitter(),
		ArrayMaps: realm.Table(),
		Resolver:  realm.Resolver(),
	})
	if err != nil {
		t.Fatalf("NewIsolate: %v", err)
	}
	return iso, realm
}

func TestRunPolymorphicScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "polymorphic.toml"))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	iso, realm := newIsolate(t)
	var out bytes.Buffer
	vector, err := s.Run(iso, realm, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("Expected 6 lines, got %d:\n%s", len(lines), out.String())
	}
	wants := []string{
		"smi[0] 0->. = 1",
		"smi[0] .->1 = 1",
		"bytes[2] 1->P = 0",
		"args[0] P->P = 7",
		"str[1] P->P = e",
		"dict[0] P->N = undefined",
	}
	for i, want := range wants {
		if !strings.HasSuffix(lines[i], want) {
			t.Errorf("line %d: Expected suffix %q, got %q", i+1, want, lines[i])
		}
	}
	if got := vector.At(0).State(); got != ic.Megamorphic {
		t.Errorf("Expected MEGAMORPHIC, got %s", got)
	}
}

func TestRunNamedStoreScenario(t *testing.T) {
	src := `
[site]
kind = "store"
language = "strict"

[[objects]]
name = "p"
fields = { x = 1 }

[[access]]
object = "p"
name = "x"
value = 2
repeat = 3
`
	path := filepath.Join(t.TempDir(), "store.toml")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	iso, realm := newIsolate(t)
	var out bytes.Buffer
	vector, err := s.Run(iso, realm, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := vector.At(0).State(); got != ic.Monomorphic {
		t.Errorf("Expected MONOMORPHIC, got %s", got)
	}
	if f := vector.At(0); f.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", f.Hits)
	}
}

func TestScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"bad kind", "[site]\nkind = \"call\"\n", "unknown site kind"},
		{"bad language", "[site]\nkind = \"store\"\nlanguage = \"loose\"\n", "unknown language mode"},
		{"bad object", "[site]\nkind = \"load\"\n[[objects]]\nname = \"o\"\ntype = \"blob\"\n", "unknown object type"},
		{"bad elements", "[site]\nkind = \"load\"\n[[objects]]\nname = \"o\"\ntype = \"array\"\nkind = \"FAST\"\n", "unknown elements kind"},
		{"missing receiver", "[site]\nkind = \"load\"\n[[access]]\nobject = \"q\"\nname = \"x\"\n", "unknown object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "s.toml")
			if err := os.WriteFile(path, []byte(tt.src), 0644); err != nil {
				t.Fatal(err)
			}
			s, err := LoadScenario(path)
			if err != nil {
				t.Fatalf("LoadScenario: %v", err)
			}
			iso, realm := newIsolate(t)
			_, err = s.Run(iso, realm, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
