package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

type Config struct {
	Target    Target             `yaml:"target"`
	Poll      Poll               `yaml:"poll"`
	Discovery Discovery          `yaml:"discovery"`
	Watch     Watch              `yaml:"watch"`
	Services  map[string]Service `yaml:"services" validate:"dive"`
	Notify    Notify             `yaml:"notify"`
	Checks    []CommandCheck     `yaml:"checks" validate:"dive"`
	LogFile   string             `yaml:"log_file"`
}

type Target struct {
	Host     string `yaml:"host"`
	Scheme   string `yaml:"scheme" validate:"omitempty,oneof=http https"`
	SSHUser  string `yaml:"ssh_user"`
	SSHKey   string `yaml:"ssh_key"`
	APIToken string `yaml:"api_token"`
	Project  string `yaml:"project"`
}

type Poll struct {
	Retries  int      `yaml:"retries" validate:"min=1"`
	Interval Duration `yaml:"interval" validate:"dmin"`
}

type Discovery struct {
	Region   string `yaml:"region"`
	TagKey   string `yaml:"tag_key"`
	TagValue string `yaml:"tag_value"`
}

type Watch struct {
	Schedule string `yaml:"schedule"`
}

type Service struct {
	URL    string            `yaml:"url" validate:"required"`
	Params map[string]string `yaml:"params"`
}

type Notify struct {
	Template string   `yaml:"template"`
	Services []string `yaml:"services"`
}

// CommandCheck is an operator-defined local command probe appended to the
// readiness chain.
type CommandCheck struct {
	Name    string   `yaml:"name" validate:"required"`
	Command string   `yaml:"command" validate:"required"`
	Args    []string `yaml:"args"`
	Pattern string   `yaml:"pattern"`
	Timeout Duration `yaml:"timeout"`
}

// Duration accepts "50s" style strings in YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return fmt.Errorf("duration: must be a string like \"50s\"")
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no config file exists; CLI
// flags can fully specify a run.
func Default() *Config {
	return &Config{
		Target:  Target{Scheme: "http", SSHUser: "ubuntu", SSHKey: defaultSSHKey()},
		Poll:    Poll{Retries: 12, Interval: Duration{50 * time.Second}},
		LogFile: filepath.Join(".out", "gitpulse.log"),
	}
}

func defaultSSHKey() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "id_rsa")
}

// Load reads, env-expands, parses, and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the constraints the YAML schema cannot express.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.RegisterValidation("dmin", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(Duration)
		return ok && d.Duration >= 0
	}); err != nil {
		return fmt.Errorf("registering validation: %w", err)
	}
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	for _, svc := range cfg.Notify.Services {
		if _, ok := cfg.Services[svc]; !ok {
			return fmt.Errorf("validating config: notify references unknown service %q", svc)
		}
	}
	return nil
}
