package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseCorners(t *testing.T) {
	got, err := parseCorners("10,20; 300,22 ;310,240;12,238")
	if err != nil {
		t.Fatalf("parseCorners: %v", err)
	}
	want := [][2]float64{{10, 20}, {300, 22}, {310, 240}, {12, 238}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseCorners_Empty(t *testing.T) {
	got, err := parseCorners("")
	if err != nil || got != nil {
		t.Errorf("empty string: got (%v, %v), want (nil, nil)", got, err)
	}
}

func TestParseCorners_Invalid(t *testing.T) {
	tests := []string{
		"10,20;30,40;50,60",       // three points
		"10,20;30,40;50,60;70",    // missing y
		"10,20;30,40;50,60;a,b",   // not numeric
		"1,2;3,4;5,6;7,8;9,10",    // five points
	}
	for _, s := range tests {
		if _, err := parseCorners(s); err == nil {
			t.Errorf("parseCorners(%q): want error", s)
		}
	}
}

func TestExpandArgs_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.TIF", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	files := expandArgs([]string{dir})
	if len(files) != 2 {
		t.Fatalf("expanded files: got %v, want the two images", files)
	}
	for _, f := range files {
		ext := filepath.Ext(f)
		if ext == ".txt" {
			t.Errorf("non-image file included: %s", f)
		}
	}
}
