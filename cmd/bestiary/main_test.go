package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/bestiary/internal/lookup"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

const notAStatblock = `<html><body><div id="main"><h1 class="title">Index</h1></div></body></html>`

func TestRunParse(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"urls.txt":    "https://aonprd.com/MonsterDisplay.aspx?ItemName=Index\n\nhttps://aonprd.com/MonsterDisplay.aspx?ItemName=Skip\n",
		"0.html":      notAStatblock,
		"2.html":      notAStatblock,
		"badlist.txt": "https://aonprd.com/MonsterDisplay.aspx?ItemName=Skip\n",
	})

	var stdout, stderr bytes.Buffer
	opts := parseOptions{dataDir: dir, knownBad: filepath.Join(dir, "badlist.txt"), workers: 2}
	if err := runParse(context.Background(), opts, &stdout, &stderr); err != nil {
		t.Fatalf("runParse: %v", err)
	}

	var records map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil || len(records) != 0 {
		t.Errorf("expected empty record object, got %q (%v)", stdout.String(), err)
	}
	summary := stderr.String()
	if !strings.Contains(summary, "Parsed 0 of 2 pages") || !strings.Contains(summary, "failed 1, skipped 1") {
		t.Errorf("unexpected summary:\n%s", summary)
	}
	if !strings.Contains(summary, "ItemName=Index: structure_mismatch") {
		t.Errorf("expected failure line in summary:\n%s", summary)
	}

	opts.strict = true
	opts.out = filepath.Join(dir, "out.json")
	if err := runParse(context.Background(), opts, &stdout, &stderr); err == nil {
		t.Error("expected strict mode to fail")
	}
	if _, err := os.Stat(opts.out); err != nil {
		t.Errorf("expected output file: %v", err)
	}
}

func TestRunParse_MissingCorpus(t *testing.T) {
	var out bytes.Buffer
	if err := runParse(context.Background(), parseOptions{dataDir: t.TempDir()}, &out, &out); err == nil {
		t.Error("expected error for a directory without urls.txt")
	}
}

func TestBuildClassTable(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Fighter.html":  `<html><body><p>Hit Die: d10.</p></body></html>`,
		"Familiar.html": `<html><body><p>No hit die here.</p></body></html>`,
	})

	table, err := buildClassTable(dir, "", false)
	if err != nil {
		t.Fatalf("buildClassTable: %v", err)
	}
	if e, ok := table.Get("fighter"); !ok || e.Size != 10 || e.Kind != lookup.Class {
		t.Errorf("unexpected fighter entry %+v (%v)", e, ok)
	}
	if e, ok := table.Get("Familiar"); !ok || e.Kind != lookup.NoDice {
		t.Errorf("unexpected familiar entry %+v (%v)", e, ok)
	}

	if _, err := buildClassTable(dir, "", true); err == nil {
		t.Error("expected alias error without a Wizard page")
	}
}

func TestBuildClassTable_Mythic(t *testing.T) {
	dir, other := t.TempDir(), t.TempDir()
	writeFiles(t, dir, map[string]string{"Fighter.html": `<p>Hit Die: d10.</p>`})
	mythic := filepath.Join(other, "MythicPaths.html")
	writeFiles(t, other, map[string]string{
		"MythicPaths.html": `<html><body><div id="main"><h1><a href="#">Archmage</a></h1></div></body></html>`,
	})

	table, err := buildClassTable(dir, mythic, false)
	if err != nil {
		t.Fatalf("buildClassTable: %v", err)
	}
	if e, ok := table.Get("Archmage"); !ok || e.Kind != lookup.Mythic {
		t.Errorf("unexpected mythic entry %+v (%v)", e, ok)
	}
}
