package config_test

import (
	"testing"

	"github.com/spf13/pflag"

	"github.com/sabouaram/s3fsgw/config"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.Bind(fs)
	return fs
}

func TestLoadDefaultsAndCredentialsFromEnv(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Set("data-dir", t.TempDir()); err != nil {
		t.Fatal(err)
	}

	t.Setenv("S3FSGW_CREDENTIALS", "AKIDEXAMPLE=topsecret")

	cfg, err := config.Load(fs, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Credentials["AKIDEXAMPLE"] != "topsecret" {
		t.Fatalf("credentials = %v", cfg.Credentials)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("listen-addr default = %q", cfg.ListenAddr)
	}
	if cfg.MaxRequestSize <= 0 {
		t.Fatalf("max-request-size default not parsed: %v", cfg.MaxRequestSize)
	}
}

func TestLoadFailsWithoutCredentialsOrLegacyAllowList(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Set("data-dir", t.TempDir()); err != nil {
		t.Fatal(err)
	}

	if _, err := config.Load(fs, ""); err == nil {
		t.Fatal("expected Load to fail with no credentials and no legacy allow-list")
	}
}

func TestLoadSucceedsWithLegacyAllowList(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Set("data-dir", t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if err := fs.Set("allow-legacy-access-key-only", "true"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Set("allowed-access-keys", "AKIDEXAMPLE"); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(fs, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AllowedAccessKeys["AKIDEXAMPLE"] {
		t.Fatalf("allowed-access-keys = %v", cfg.AllowedAccessKeys)
	}
}

func TestLoadRequiresDataDir(t *testing.T) {
	fs := newFlagSet()
	if _, err := config.Load(fs, ""); err == nil {
		t.Fatal("expected Load to fail without data-dir")
	}
}
