package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/kart-io/guard/pkg/app/cliflag"
)

type testOptions struct {
	Addr  string `mapstructure:"addr"`
	Level string `mapstructure:"level"`

	completed   bool
	validateErr error
}

func (o *testOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("test")
	fs.StringVar(&o.Addr, "addr", o.Addr, "listen address")
	fs.StringVar(&o.Level, "level", o.Level, "log level")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	return o.validateErr
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guard-test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestAppRunsRunFunc(t *testing.T) {
	var ran bool
	a := NewApp(
		WithName("guard-test"),
		WithNoConfig(),
		WithNoVersion(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)

	a.Command().SetArgs([]string{})
	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !ran {
		t.Error("run func was not called")
	}
}

func TestAppCompletesAndValidatesOptions(t *testing.T) {
	opts := &testOptions{}
	a := NewApp(
		WithName("guard-test"),
		WithNoConfig(),
		WithNoVersion(),
		WithOptions(opts),
	)

	a.Command().SetArgs([]string{})
	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !opts.completed {
		t.Error("options were not completed")
	}
}

func TestAppValidateErrorAborts(t *testing.T) {
	wantErr := errors.New("addr is required")
	opts := &testOptions{validateErr: wantErr}

	var ran bool
	a := NewApp(
		WithName("guard-test"),
		WithNoConfig(),
		WithNoVersion(),
		WithSilence(),
		WithOptions(opts),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)

	a.Command().SetArgs([]string{})
	if err := a.Command().Execute(); !errors.Is(err, wantErr) {
		t.Fatalf("Execute error = %v, want %v", err, wantErr)
	}
	if ran {
		t.Error("run func should not be called when validation fails")
	}
}

func TestAppRegistersOptionFlags(t *testing.T) {
	a := NewApp(
		WithName("guard-test"),
		WithNoConfig(),
		WithNoVersion(),
		WithOptions(&testOptions{}),
	)

	for _, name := range []string{"addr", "level"} {
		if a.Command().Flags().Lookup(name) == nil {
			t.Errorf("flag %q not registered", name)
		}
	}
}

func TestAppLoadsConfigFile(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, "addr: 127.0.0.1:9443\nlevel: debug\n")

	opts := &testOptions{}
	a := NewApp(
		WithName("guard-test"),
		WithNoVersion(),
		WithOptions(opts),
	)

	a.Command().SetArgs([]string{"--config", path})
	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Addr != "127.0.0.1:9443" {
		t.Errorf("Addr = %q, want 127.0.0.1:9443", opts.Addr)
	}
	if opts.Level != "debug" {
		t.Errorf("Level = %q, want debug", opts.Level)
	}
}

func TestAppFlagOverridesConfig(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, "addr: from-config\n")

	opts := &testOptions{}
	a := NewApp(
		WithName("guard-test"),
		WithNoVersion(),
		WithOptions(opts),
	)

	a.Command().SetArgs([]string{"--config", path, "--addr", "from-flag"})
	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Addr != "from-flag" {
		t.Errorf("Addr = %q, want from-flag", opts.Addr)
	}
}

func TestAppExpandsEnvInConfig(t *testing.T) {
	viper.Reset()
	t.Setenv("GUARD_TEST_REDIS_HOST", "redis.internal")
	path := writeConfig(t, "addr: ${GUARD_TEST_REDIS_HOST}:6379\n")

	opts := &testOptions{}
	a := NewApp(
		WithName("guard-test"),
		WithNoVersion(),
		WithOptions(opts),
	)

	a.Command().SetArgs([]string{"--config", path})
	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Addr != "redis.internal:6379" {
		t.Errorf("Addr = %q, want redis.internal:6379", opts.Addr)
	}
}
