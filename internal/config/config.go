// Package config loads satfetch settings from defaults, an optional
// satfetch.yaml (or .toml/.json) file, a dotenv file, and SATFETCH_*
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. SATFETCH_FUNCTION_MEMORY_MB.
const EnvPrefix = "SATFETCH"

// Config is the full set of settings the stack is assembled from.
type Config struct {
	Stack    StackConfig    `mapstructure:"stack"`
	Image    ImageConfig    `mapstructure:"image"`
	Function FunctionConfig `mapstructure:"function"`
	Endpoint EndpointConfig `mapstructure:"endpoint"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Assets   AssetsConfig   `mapstructure:"assets"`

	file string
}

// StackConfig names the synthesized stack.
type StackConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	// ExportPrefix, when set, exports each output as <prefix>-<output name>
	// for Fn::ImportValue in other stacks.
	ExportPrefix string `mapstructure:"export_prefix"`
}

// ImageConfig locates the container image build context.
type ImageConfig struct {
	Path       string `mapstructure:"path"`
	Dockerfile string `mapstructure:"dockerfile"`
	Platform   string `mapstructure:"platform"`
}

// FunctionConfig sizes the Lambda function.
type FunctionConfig struct {
	MemoryMB            int               `mapstructure:"memory_mb"`
	TimeoutSeconds      int               `mapstructure:"timeout_seconds"`
	Architecture        string            `mapstructure:"architecture"`
	ReservedConcurrency int               `mapstructure:"reserved_concurrency"`
	Environment         map[string]string `mapstructure:"environment"`
	EnvFile             string            `mapstructure:"env_file"`
}

// EndpointConfig describes the direct function URL.
type EndpointConfig struct {
	AuthMode       string   `mapstructure:"auth_mode"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GatewayConfig describes the REST API and its routes.
type GatewayConfig struct {
	Name                 string        `mapstructure:"name"`
	Description          string        `mapstructure:"description"`
	StageName            string        `mapstructure:"stage_name"`
	Routes               []RouteConfig `mapstructure:"routes"`
	ThrottlingRateLimit  float64       `mapstructure:"throttling_rate_limit"`
	ThrottlingBurstLimit int           `mapstructure:"throttling_burst_limit"`
}

// RouteConfig is one path segment beneath the gateway root.
type RouteConfig struct {
	Path   string `mapstructure:"path"`
	Method string `mapstructure:"method"`
}

// AssetsConfig controls where container images are published.
type AssetsConfig struct {
	// Qualifier is the bootstrap qualifier embedded in the asset repository name.
	Qualifier string `mapstructure:"qualifier"`
}

// Options selects the files Load reads.
type Options struct {
	// ConfigFile is an explicit config path. When empty, satfetch.{yaml,toml,json}
	// is searched for in the working directory and its absence is not an error.
	ConfigFile string
	// EnvFile is a dotenv file loaded into the process environment before the
	// environment overrides are applied. When empty, .env is loaded if present.
	EnvFile string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Stack: StackConfig{
			Name:        "SatelliteFetcherAwsStack",
			Description: "Satellite data fetcher: containerized Lambda behind a function URL and a REST API",
		},
		Image: ImageConfig{
			Path:       "./image",
			Dockerfile: "Dockerfile",
		},
		Function: FunctionConfig{
			MemoryMB:       1024,
			TimeoutSeconds: 30,
			Architecture:   "arm64",
		},
		Endpoint: EndpointConfig{
			AuthMode:       "NONE",
			AllowedMethods: []string{"GET"},
			AllowedHeaders: []string{"*"},
			AllowedOrigins: []string{"*"},
		},
		Gateway: GatewayConfig{
			Name:        "SatelliteFetcherAwsApi",
			Description: "Fetch satellite data",
			StageName:   "prod",
			Routes: []RouteConfig{
				{Path: "fire", Method: "GET"},
				{Path: "lightning", Method: "GET"},
				{Path: "rain", Method: "GET"},
			},
		},
		Assets: AssetsConfig{
			Qualifier: "hnb659fds",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("stack.name", d.Stack.Name)
	v.SetDefault("stack.description", d.Stack.Description)
	v.SetDefault("stack.export_prefix", d.Stack.ExportPrefix)
	v.SetDefault("image.path", d.Image.Path)
	v.SetDefault("image.dockerfile", d.Image.Dockerfile)
	v.SetDefault("image.platform", d.Image.Platform)
	v.SetDefault("function.memory_mb", d.Function.MemoryMB)
	v.SetDefault("function.timeout_seconds", d.Function.TimeoutSeconds)
	v.SetDefault("function.architecture", d.Function.Architecture)
	v.SetDefault("function.reserved_concurrency", d.Function.ReservedConcurrency)
	v.SetDefault("function.env_file", d.Function.EnvFile)
	v.SetDefault("endpoint.auth_mode", d.Endpoint.AuthMode)
	v.SetDefault("endpoint.allowed_methods", d.Endpoint.AllowedMethods)
	v.SetDefault("endpoint.allowed_headers", d.Endpoint.AllowedHeaders)
	v.SetDefault("endpoint.allowed_origins", d.Endpoint.AllowedOrigins)
	v.SetDefault("gateway.name", d.Gateway.Name)
	v.SetDefault("gateway.description", d.Gateway.Description)
	v.SetDefault("gateway.stage_name", d.Gateway.StageName)
	v.SetDefault("gateway.throttling_rate_limit", d.Gateway.ThrottlingRateLimit)
	v.SetDefault("gateway.throttling_burst_limit", d.Gateway.ThrottlingBurstLimit)

	routes := make([]any, 0, len(d.Gateway.Routes))
	for _, r := range d.Gateway.Routes {
		routes = append(routes, map[string]any{"path": r.Path, "method": r.Method})
	}
	v.SetDefault("gateway.routes", routes)

	v.SetDefault("assets.qualifier", d.Assets.Qualifier)
}

// Load reads and validates the configuration.
func Load(opts Options) (*Config, error) {
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("satfetch")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.file = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// File returns the config file that was read, or "" when only defaults and
// environment variables were used.
func (c *Config) File() string {
	return c.file
}

// FunctionEnvironment returns the variables passed to the function: entries
// from function.env_file first, then function.environment on top. Keys are
// upper-cased because the config loader folds map keys to lower case.
func (c *Config) FunctionEnvironment() (map[string]string, error) {
	env := make(map[string]string)

	if c.Function.EnvFile != "" {
		fromFile, err := godotenv.Read(c.Function.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("reading function env file %s: %w", c.Function.EnvFile, err)
		}
		for k, v := range fromFile {
			env[k] = v
		}
	}

	for k, v := range c.Function.Environment {
		env[strings.ToUpper(k)] = v
	}

	if len(env) == 0 {
		return nil, nil
	}
	return env, nil
}

var (
	pathPartPattern  = regexp.MustCompile(`^([a-zA-Z0-9._-]+|\{[a-zA-Z0-9._-]+\+?\})$`)
	stageNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	qualifierPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)
	envNamePattern   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	exportPattern    = regexp.MustCompile(`^[a-zA-Z0-9:-]+$`)

	httpMethods = map[string]bool{
		"GET": true, "POST": true, "PUT": true, "PATCH": true,
		"DELETE": true, "HEAD": true, "OPTIONS": true, "ANY": true,
	}
	// Function URL CORS accepts "*" in place of a method list.
	corsMethods = map[string]bool{
		"GET": true, "POST": true, "PUT": true, "PATCH": true,
		"DELETE": true, "HEAD": true, "OPTIONS": true, "*": true,
	}
)

// Validate checks ranges and enumerations. Every error wraps ErrInvalid.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Stack.Name == "" {
		add("stack.name must not be empty")
	}
	if c.Stack.ExportPrefix != "" && !exportPattern.MatchString(c.Stack.ExportPrefix) {
		add("stack.export_prefix %q may only contain letters, digits, colons and hyphens", c.Stack.ExportPrefix)
	}
	if c.Image.Path == "" {
		add("image.path must not be empty")
	}
	if c.Image.Dockerfile == "" {
		add("image.dockerfile must not be empty")
	}

	if c.Function.MemoryMB < 128 || c.Function.MemoryMB > 10240 {
		add("function.memory_mb %d out of range [128, 10240]", c.Function.MemoryMB)
	}
	if c.Function.TimeoutSeconds < 1 || c.Function.TimeoutSeconds > 900 {
		add("function.timeout_seconds %d out of range [1, 900]", c.Function.TimeoutSeconds)
	}
	if c.Function.Architecture != "x86_64" && c.Function.Architecture != "arm64" {
		add("function.architecture %q must be x86_64 or arm64", c.Function.Architecture)
	}
	if c.Function.ReservedConcurrency < 0 {
		add("function.reserved_concurrency must not be negative")
	}
	for _, k := range sortedKeys(c.Function.Environment) {
		if !envNamePattern.MatchString(k) {
			add("function.environment key %q is not a valid variable name", k)
		}
	}

	if c.Endpoint.AuthMode != "NONE" && c.Endpoint.AuthMode != "AWS_IAM" {
		add("endpoint.auth_mode %q must be NONE or AWS_IAM", c.Endpoint.AuthMode)
	}
	for _, m := range c.Endpoint.AllowedMethods {
		if !corsMethods[strings.ToUpper(m)] {
			add("endpoint.allowed_methods: unknown method %q", m)
		}
	}

	if c.Gateway.Name == "" {
		add("gateway.name must not be empty")
	}
	if !stageNamePattern.MatchString(c.Gateway.StageName) {
		add("gateway.stage_name %q may only contain letters, digits and underscores", c.Gateway.StageName)
	}
	if len(c.Gateway.Routes) == 0 {
		add("gateway.routes must declare at least one route")
	}
	for i, r := range c.Gateway.Routes {
		if !pathPartPattern.MatchString(r.Path) {
			add("gateway.routes[%d].path %q is not a valid path part", i, r.Path)
		}
		if !httpMethods[strings.ToUpper(r.Method)] {
			add("gateway.routes[%d].method %q is not an HTTP method", i, r.Method)
		}
	}
	if c.Gateway.ThrottlingRateLimit < 0 || c.Gateway.ThrottlingBurstLimit < 0 {
		add("gateway throttling limits must not be negative")
	}

	if !qualifierPattern.MatchString(c.Assets.Qualifier) {
		add("assets.qualifier %q must be 1-10 lowercase letters or digits", c.Assets.Qualifier)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
