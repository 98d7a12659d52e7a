package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	s := sample{Limit: 7}
	if err := Load(writeFile(t, "name: ${SAMPLE_NAME}\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "from-env" || s.Limit != 7 {
		t.Errorf("got %+v", s)
	}
}

func TestLoadValidates(t *testing.T) {
	var s sample
	err := Load(writeFile(t, "limit: -1\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	s := sample{Name: "default"}
	read, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s)
	if err != nil || read {
		t.Fatalf("read=%v err=%v", read, err)
	}
	if s.Name != "default" {
		t.Errorf("defaults changed: %+v", s)
	}

	bad := sample{Limit: -3}
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &bad); err == nil {
		t.Error("defaults are still validated")
	}
}

func TestLoadOptionalExistingFile(t *testing.T) {
	var s sample
	read, err := LoadOptional(writeFile(t, "name: x\n"), &s)
	if err != nil || !read || s.Name != "x" {
		t.Errorf("read=%v err=%v s=%+v", read, err, s)
	}
}
