package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory so no stray satfetch.yaml or
// .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// unsetForTest clears an environment variable and restores it afterwards.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "SatelliteFetcherAwsStack", cfg.Stack.Name)
	assert.Equal(t, "./image", cfg.Image.Path)
	assert.Equal(t, 1024, cfg.Function.MemoryMB)
	assert.Equal(t, 30, cfg.Function.TimeoutSeconds)
	assert.Equal(t, "arm64", cfg.Function.Architecture)
	assert.Equal(t, "NONE", cfg.Endpoint.AuthMode)
	assert.Equal(t, []string{"GET"}, cfg.Endpoint.AllowedMethods)
	assert.Equal(t, []string{"*"}, cfg.Endpoint.AllowedHeaders)
	assert.Equal(t, []string{"*"}, cfg.Endpoint.AllowedOrigins)
	assert.Equal(t, "SatelliteFetcherAwsApi", cfg.Gateway.Name)
	assert.Equal(t, "Fetch satellite data", cfg.Gateway.Description)
	assert.Equal(t, "prod", cfg.Gateway.StageName)
	assert.Equal(t, []RouteConfig{
		{Path: "fire", Method: "GET"},
		{Path: "lightning", Method: "GET"},
		{Path: "rain", Method: "GET"},
	}, cfg.Gateway.Routes)
	assert.Equal(t, "hnb659fds", cfg.Assets.Qualifier)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	isolate(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, Default().Function, cfg.Function)
	assert.Equal(t, Default().Gateway.Routes, cfg.Gateway.Routes)
	assert.Empty(t, cfg.File())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "satfetch.yaml"), []byte(`
stack:
  name: StagingStack
function:
  memory_mb: 2048
  architecture: x86_64
  environment:
    FIRMS_MAP_KEY: abc
gateway:
  stage_name: staging
  routes:
    - path: fire
      method: GET
    - path: smoke
      method: GET
`), 0o644))

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "StagingStack", cfg.Stack.Name)
	assert.Equal(t, 2048, cfg.Function.MemoryMB)
	assert.Equal(t, 30, cfg.Function.TimeoutSeconds)
	assert.Equal(t, "x86_64", cfg.Function.Architecture)
	assert.Equal(t, "staging", cfg.Gateway.StageName)
	assert.Equal(t, []RouteConfig{{Path: "fire", Method: "GET"}, {Path: "smoke", Method: "GET"}}, cfg.Gateway.Routes)
	assert.Equal(t, "satfetch.yaml", filepath.Base(cfg.File()))

	env, err := cfg.FunctionEnvironment()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FIRMS_MAP_KEY": "abc"}, env)
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	dir := isolate(t)

	_, err := Load(Options{ConfigFile: filepath.Join(dir, "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SATFETCH_FUNCTION_MEMORY_MB", "512")
	t.Setenv("SATFETCH_IMAGE_PATH", "./other")
	t.Setenv("SATFETCH_ENDPOINT_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.Function.MemoryMB)
	assert.Equal(t, "./other", cfg.Image.Path)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Endpoint.AllowedOrigins)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	unsetForTest(t, "SATFETCH_STACK_NAME")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.env"), []byte("SATFETCH_STACK_NAME=FromDotEnv\n"), 0o644))

	cfg, err := Load(Options{EnvFile: filepath.Join(dir, "deploy.env")})
	require.NoError(t, err)
	assert.Equal(t, "FromDotEnv", cfg.Stack.Name)
}

func TestLoad_DotEnvMissing(t *testing.T) {
	dir := isolate(t)

	_, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env")})
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv("SATFETCH_FUNCTION_TIMEOUT_SECONDS", "0")

	_, err := Load(Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"memory too low", func(c *Config) { c.Function.MemoryMB = 64 }, "function.memory_mb"},
		{"memory too high", func(c *Config) { c.Function.MemoryMB = 20000 }, "function.memory_mb"},
		{"timeout", func(c *Config) { c.Function.TimeoutSeconds = 901 }, "function.timeout_seconds"},
		{"architecture", func(c *Config) { c.Function.Architecture = "arm32" }, "function.architecture"},
		{"auth mode", func(c *Config) { c.Endpoint.AuthMode = "COGNITO" }, "endpoint.auth_mode"},
		{"cors method", func(c *Config) { c.Endpoint.AllowedMethods = []string{"FETCH"} }, "endpoint.allowed_methods"},
		{"stage name", func(c *Config) { c.Gateway.StageName = "prod-1" }, "gateway.stage_name"},
		{"no routes", func(c *Config) { c.Gateway.Routes = nil }, "gateway.routes"},
		{"bad path", func(c *Config) { c.Gateway.Routes[0].Path = "fire/now" }, "gateway.routes[0].path"},
		{"greedy path", func(c *Config) { c.Gateway.Routes[0].Path = "{proxy+}" }, ""},
		{"bad method", func(c *Config) { c.Gateway.Routes[1].Method = "FETCH" }, "gateway.routes[1].method"},
		{"qualifier", func(c *Config) { c.Assets.Qualifier = "Has-Dash" }, "assets.qualifier"},
		{"env name", func(c *Config) { c.Function.Environment = map[string]string{"1BAD": "x"} }, "function.environment"},
		{"export prefix", func(c *Config) { c.Stack.ExportPrefix = "satellite-prod" }, ""},
		{"bad export prefix", func(c *Config) { c.Stack.ExportPrefix = "satellite_prod" }, "stack.export_prefix"},
		{"negative concurrency", func(c *Config) { c.Function.ReservedConcurrency = -1 }, "reserved_concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFunctionEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "function.env")
	require.NoError(t, os.WriteFile(envFile, []byte("FIRMS_MAP_KEY=from-file\nLOG_LEVEL=info\n"), 0o644))

	cfg := Default()
	cfg.Function.EnvFile = envFile
	cfg.Function.Environment = map[string]string{"firms_map_key": "override"}

	env, err := cfg.FunctionEnvironment()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"FIRMS_MAP_KEY": "override",
		"LOG_LEVEL":     "info",
	}, env)

	cfg.Function.EnvFile = filepath.Join(dir, "missing.env")
	_, err = cfg.FunctionEnvironment()
	assert.Error(t, err)
}

func TestFunctionEnvironment_Empty(t *testing.T) {
	env, err := Default().FunctionEnvironment()
	require.NoError(t, err)
	assert.Nil(t, env)
}
