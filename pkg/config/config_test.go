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
	Port  int    `yaml:"port"`
	Extra string `yaml:"extra"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestDecodeExpandsEnv(t *testing.T) {
	t.Setenv("CLM_TEST_NAME", "course")
	s := sample{Port: 1, Extra: "kept"}
	if err := Decode([]byte("name: ${CLM_TEST_NAME}\nport: 9000\n"), &s); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Name != "course" || s.Port != 9000 {
		t.Errorf("got %+v", s)
	}
	if s.Extra != "kept" {
		t.Errorf("missing key should keep default, got %q", s.Extra)
	}
}

func TestDecodeValidates(t *testing.T) {
	s := sample{}
	err := Decode([]byte("port: 0\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte("port: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := sample{}
	if err := Load(file, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Port != 7 {
		t.Errorf("port = %d, want 7", s.Port)
	}

	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &s); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	s := sample{Port: 3}
	if err := LoadOptional(missing, &s); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if s.Port != 3 {
		t.Errorf("port = %d, want 3", s.Port)
	}

	bad := sample{}
	if err := LoadOptional(missing, &bad); err == nil {
		t.Error("invalid defaults should fail")
	}
}
