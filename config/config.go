package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// DefaultName is the base name of the configuration file, read as <name>.json.
	DefaultName    = "config.mail"
	DefaultRunName = "rpa-mail-filter"

	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"

	envPrefix = "MAILFILTER"
)

// GmailModifyScope lets the tool read messages and clear the UNREAD label.
const GmailModifyScope = "https://www.googleapis.com/auth/gmail.modify"

// Config is the run configuration. It is loaded once and never mutated.
type Config struct {
	RunName          string      `mapstructure:"run_name" validate:"required"`
	Spreadsheet      Spreadsheet `mapstructure:"spreadsheet"`
	CandidateFolders Folder      `mapstructure:"candidate_folders"`
	API              API         `mapstructure:"api"`
	Search           Search      `mapstructure:"search"`
	Labels           Labels      `mapstructure:"labels"`
}

// Spreadsheet locates the workbook receiving one row per candidate.
type Spreadsheet struct {
	Path  string `mapstructure:"path" validate:"required"`
	Sheet string `mapstructure:"sheet" validate:"required"`
}

// Folder is the root directory for per-candidate attachment folders.
type Folder struct {
	Path string `mapstructure:"path" validate:"required"`
}

// API selects the mail provider and holds its credentials.
type API struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=gmail imap"`
	Google   Google `mapstructure:"google"`
	IMAP     IMAP   `mapstructure:"imap"`
}

// Google holds the OAuth client secret file, the cached token file and the scopes requested.
type Google struct {
	TokenFile       string   `mapstructure:"token_file"`
	CredentialsFile string   `mapstructure:"credentials_file"`
	Scopes          []string `mapstructure:"scopes"`
}

// IMAP holds the server settings used when Provider is "imap". An empty
// Password means the password is looked up in the system keyring.
type IMAP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TLS      bool   `mapstructure:"tls"`
	Mailbox  string `mapstructure:"mailbox"`
}

// Search controls which unread messages a run picks up.
type Search struct {
	Subject   string `mapstructure:"subject" validate:"required"`
	BatchSize int64  `mapstructure:"batch_size" validate:"min=1,max=500"`
}

// Labels are the body line markers for each candidate field.
type Labels struct {
	Name  string `mapstructure:"name" validate:"required"`
	Phone string `mapstructure:"phone" validate:"required"`
	Role  string `mapstructure:"role" validate:"required"`
}

// Path returns the configuration file path for a directory and base name.
func Path(dir, name string) string {
	if name == "" {
		name = DefaultName
	}
	return filepath.Join(dir, name+".json")
}

// Load reads <dir>/<name>.json. Values can be overridden with MAILFILTER_*
// environment variables (MAILFILTER_SEARCH_SUBJECT overrides search.subject).
// A missing file is an error: the caller is expected to stop the run.
func Load(dir, name string) (*Config, error) {
	path := Path(dir, name)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("run_name", DefaultRunName)
	v.SetDefault("spreadsheet.sheet", "Sheet1")
	v.SetDefault("api.provider", ProviderGmail)
	v.SetDefault("api.google.token_file", "token.json")
	v.SetDefault("api.google.credentials_file", "credentials.json")
	v.SetDefault("api.google.scopes", []string{GmailModifyScope})
	v.SetDefault("api.imap.port", 993)
	v.SetDefault("api.imap.tls", true)
	v.SetDefault("api.imap.mailbox", "INBOX")
	v.SetDefault("search.batch_size", 10)
	v.SetDefault("labels.name", "Nome")
	v.SetDefault("labels.phone", "Telefone")
	v.SetDefault("labels.role", "Vaga")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("config file %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints and the settings the chosen provider needs.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.API.Provider {
	case ProviderGmail:
		if c.API.Google.CredentialsFile == "" || c.API.Google.TokenFile == "" {
			return fmt.Errorf("api.google: token_file and credentials_file are required")
		}
		if len(c.API.Google.Scopes) == 0 {
			return fmt.Errorf("api.google: at least one scope is required")
		}
	case ProviderIMAP:
		if c.API.IMAP.Host == "" || c.API.IMAP.Username == "" {
			return fmt.Errorf("api.imap: host and username are required")
		}
	}
	return nil
}
