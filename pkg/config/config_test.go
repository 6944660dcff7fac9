package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "lookviz")
	p := writeFile(t, "name: ${CONFIG_TEST_NAME}\nport: 80\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "lookviz" || s.Port != 80 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_KeepsUnsetValues(t *testing.T) {
	p := writeFile(t, "name: x\n")
	s := sample{Port: 8080}
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Port != 8080 {
		t.Errorf("port = %d, want default 8080", s.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &s); err == nil {
		t.Error("expected error for missing file")
	}
	if err := Load(writeFile(t, "port: [\n"), &s); err == nil {
		t.Error("expected parse error")
	}
	if err := Load(writeFile(t, "port: 0\n"), &s); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	s := sample{Port: 8080}
	read, err := LoadWithDefaults(missing, "", &s)
	if err != nil || read {
		t.Fatalf("defaults only: read=%v err=%v", read, err)
	}

	fallback := writeFile(t, "port: 9000\n")
	read, err = LoadWithDefaults(missing, fallback, &s)
	if err != nil || !read || s.Port != 9000 {
		t.Fatalf("fallback file: read=%v err=%v port=%d", read, err, s.Port)
	}

	bad := sample{}
	if _, err := LoadWithDefaults(missing, "", &bad); err == nil {
		t.Error("invalid defaults should fail validation")
	}
}
