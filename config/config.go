package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/veloq/forecourt"
)

// Config holds the command line and config file settings of the front
// controller process. Flags are registered on the embedded flag set; a
// -config-file in YAML format overlays the defaults, and flags given on
// the command line win over the file.
type Config struct {
	ConfigFile string
	Flags      *flag.FlagSet

	// generic:
	Address           string `yaml:"address"`
	SupportListener   string `yaml:"support-listener"`
	ControllerDir     string `yaml:"controller-dir"`
	ControllerExt     string `yaml:"controller-ext"`
	RoutesFile        string `yaml:"routes-file"`
	MaxForwards       int    `yaml:"max-forwards"`
	DefaultHTTPStatus int    `yaml:"default-http-status"`
	Debug             bool   `yaml:"debug"`

	// backing file existence cache:
	EnableFSCache bool          `yaml:"enable-fscache"`
	FSCacheTTL    time.Duration `yaml:"fscache-ttl"`

	// logging, metrics, tracing:
	EnablePrometheusMetrics   bool   `yaml:"enable-prometheus-metrics"`
	EnableRuntimeMetrics      bool   `yaml:"enable-runtime-metrics"`
	MetricsPrefix             string `yaml:"metrics-prefix"`
	OpenTracing               string `yaml:"opentracing"`
	ApplicationLogPrefix      string `yaml:"application-log-prefix"`
	ApplicationLogJSONEnabled bool   `yaml:"application-log-json-enabled"`
	AccessLogDisabled         bool   `yaml:"access-log-disabled"`
	AccessLogJSONEnabled      bool   `yaml:"access-log-json-enabled"`
}

func NewConfig() *Config {
	cfg := new(Config)

	flags := flag.NewFlagSet("", flag.ExitOnError)
	flags.StringVar(&cfg.ConfigFile, "config-file", "", "if provided the flags will be loaded/overwritten by the values on the file (yaml)")

	// generic:
	flags.StringVar(&cfg.Address, "address", ":9090", "network address to listen on")
	flags.StringVar(&cfg.SupportListener, "support-listener", "", "network address used for exposing the /metrics endpoint, empty disables it")
	flags.StringVar(&cfg.ControllerDir, "controller-dir", "controllers", "directory holding the controller backing files")
	flags.StringVar(&cfg.ControllerExt, "controller-ext", ".go", "extension of the controller backing files")
	flags.StringVar(&cfg.RoutesFile, "routes-file", "", "path of a YAML route table, empty routes by convention only")
	flags.IntVar(&cfg.MaxForwards, "max-forwards", 0, "limit of internal forwards per request, 0 disables the limit")
	flags.IntVar(&cfg.DefaultHTTPStatus, "default-http-status", 404, "HTTP status used when no route is found for a request")
	flags.BoolVar(&cfg.Debug, "debug", false, "enables the controller registration integrity check after loading a backing file")

	// backing file existence cache:
	flags.BoolVar(&cfg.EnableFSCache, "enable-fscache", false, "memoize backing file existence checks")
	flags.DurationVar(&cfg.FSCacheTTL, "fscache-ttl", 0, "TTL of memoized existence flags, 0 uses the built-in default")

	// logging, metrics, tracing:
	flags.BoolVar(&cfg.EnablePrometheusMetrics, "enable-prometheus-metrics", false, "enables the collection of dispatch metrics")
	flags.BoolVar(&cfg.EnableRuntimeMetrics, "enable-runtime-metrics", false, "collect Go runtime metrics in addition to the dispatch metrics")
	flags.StringVar(&cfg.MetricsPrefix, "metrics-prefix", "", "replaces the default metrics namespace")
	flags.StringVar(&cfg.OpenTracing, "opentracing", "noop", "tracer implementation to use, one of noop or basic")
	flags.StringVar(&cfg.ApplicationLogPrefix, "application-log-prefix", "[APP]", "prefix for application log entries")
	flags.BoolVar(&cfg.ApplicationLogJSONEnabled, "application-log-json-enabled", false, "when this flag is set, log in JSON format is used")
	flags.BoolVar(&cfg.AccessLogDisabled, "access-log-disabled", false, "when this flag is set, no access log is printed")
	flags.BoolVar(&cfg.AccessLogJSONEnabled, "access-log-json-enabled", false, "when this flag is set, log in JSON format is used")

	cfg.Flags = flags
	return cfg
}

func validate(c *Config) error {
	if c.Address == "" {
		return fmt.Errorf("missing address")
	}

	if c.MaxForwards < 0 {
		return fmt.Errorf("invalid max-forwards: %d", c.MaxForwards)
	}

	return nil
}

func (c *Config) Parse() error {
	return c.ParseArgs(os.Args[0], os.Args[1:])
}

func (c *Config) ParseArgs(progname string, args []string) error {
	c.Flags.Init(progname, flag.ExitOnError)
	if err := c.Flags.Parse(args); err != nil {
		return err
	}

	// check if arguments were correctly parsed.
	if len(c.Flags.Args()) != 0 {
		return fmt.Errorf("invalid arguments: %s", c.Flags.Args())
	}

	if c.ConfigFile != "" {
		yamlFile, err := os.ReadFile(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("invalid config file: %w", err)
		}

		if err := yaml.Unmarshal(yamlFile, c); err != nil {
			return fmt.Errorf("unmarshalling config file error: %w", err)
		}

		// command line wins over the file
		if err := c.Flags.Parse(args); err != nil {
			return err
		}
	}

	return validate(c)
}

// ToOptions maps the parsed configuration to run options. The linker,
// hooks and bootstrapper are code level settings supplied by the
// application.
func (c *Config) ToOptions() forecourt.Options {
	return forecourt.Options{
		Address:                   c.Address,
		SupportListener:           c.SupportListener,
		ControllerDir:             c.ControllerDir,
		ControllerExt:             c.ControllerExt,
		RoutesFile:                c.RoutesFile,
		MaxForwards:               c.MaxForwards,
		DefaultHTTPStatus:         c.DefaultHTTPStatus,
		Debug:                     c.Debug,
		EnableFSCache:             c.EnableFSCache,
		FSCacheTTL:                c.FSCacheTTL,
		EnablePrometheusMetrics:   c.EnablePrometheusMetrics,
		EnableRuntimeMetrics:      c.EnableRuntimeMetrics,
		MetricsPrefix:             c.MetricsPrefix,
		OpenTracing:               c.OpenTracing,
		ApplicationLogPrefix:      c.ApplicationLogPrefix,
		ApplicationLogJSONEnabled: c.ApplicationLogJSONEnabled,
		AccessLogDisabled:         c.AccessLogDisabled,
		AccessLogJSONEnabled:      c.AccessLogJSONEnabled,
	}
}
