package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	old := time.Now().Add(-2 * time.Hour)
	files := map[string]bool{
		`.A01.wav.123.part`: true,
		`.B02.wav.456.part`: false,
		`A01.wav`:           true,
	}
	for name, stale := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(`x`), 0644); err != nil {
			t.Fatal(err)
		}
		if stale {
			_ = os.Chtimes(path, old, old)
		}
	}
	_ = os.Mkdir(filepath.Join(dir, `old.part`), 0755)
	count, status := CleanupDirectory(ctx, dir, `*.part`, StalePartAge)
	if status != nil {
		t.Fatal(status)
	}
	if count != 1 {
		t.Error("removed", count)
	}
	for name, want := range map[string]bool{`.A01.wav.123.part`: false, `.B02.wav.456.part`: true, `A01.wav`: true, `old.part`: true} {
		_, err := os.Stat(filepath.Join(dir, name))
		if (err == nil) != want {
			t.Error(name, "exists:", err == nil)
		}
	}
}

func TestCleanupDirectory_Missing(t *testing.T) {
	_, status := CleanupDirectory(context.Background(), filepath.Join(t.TempDir(), `none`), `*`, time.Hour)
	if status == nil || status.Status != 500 {
		t.Error(status)
	}
}
