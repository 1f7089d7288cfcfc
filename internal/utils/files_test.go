package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafeWriteFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "woe_result.csv")
	if err := SafeWriteFile(path, []byte("var,WOE,n,event_rate\n")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "var,WOE,n,event_rate\n" {
		t.Fatalf("unexpected content %q", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"n": 3})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"n\": 3") {
		t.Fatalf("not indented: %s", b)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/analyst")
	got, err := ExpandHome("~/data/orders.csv")
	if err != nil {
		t.Fatalf("ExpandHome: %v", err)
	}
	if got != "/home/analyst/data/orders.csv" {
		t.Fatalf("got %q", got)
	}
	if got, _ := ExpandHome("rel/path.csv"); got != "rel/path.csv" {
		t.Fatalf("relative path changed: %q", got)
	}
}
