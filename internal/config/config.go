package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeCLI   = "cli"
	ModeStdio = "stdio"

	// Default values
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultOutput       = "Form26AS_TDS_Summary.xlsx"
	DefaultOCRThreshold = 50
	DefaultOCRLanguages = "eng"
	DefaultWorkers      = 1

	// EnvPrefix prefixes every environment override, e.g. TDS26AS_OCR_THRESHOLD
	EnvPrefix = "TDS26AS"
)

// ErrVersionRequested is returned when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the summarizer
type Config struct {
	// Run mode
	Mode string // "cli" or "stdio"

	// Input and output
	File     string // statement PDF (cli mode)
	Password string
	Output   string // xlsx path; empty disables export

	// Extraction
	OCRThreshold int
	OCRLanguages []string
	Workers      int

	// MCP configuration
	PDFDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:         ModeCLI,
		Output:       DefaultOutput,
		OCRThreshold: DefaultOCRThreshold,
		OCRLanguages: []string{DefaultOCRLanguages},
		Workers:      DefaultWorkers,
		PDFDirectory: currentDir,
		Version:      "1.0.0",
		ServerName:   "tds-summarizer",
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process command line
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[0], os.Args[1:], os.Stderr)
}

// Load parses args (without the program name) together with TDS26AS_*
// environment variables. Flags override the environment, which overrides defaults.
func Load(program string, args []string, usageOut io.Writer) (*Config, error) {
	if versionRequested(args) {
		return nil, ErrVersionRequested
	}

	cfg := DefaultConfig()
	v := newViper(cfg)
	flags := defineFlags(program, cfg)
	flags.SetOutput(usageOut)
	flags.Usage = usage(program, flags, usageOut)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	populateFromViper(v, cfg)

	// a bare positional argument names the statement
	if cfg.File == "" && flags.NArg() > 0 {
		cfg.File = flags.Arg(0)
	}

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("ocr-threshold", cfg.OCRThreshold)
	v.SetDefault("ocr-languages", strings.Join(cfg.OCRLanguages, ","))
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	return v
}

func defineFlags(program string, cfg *Config) *pflag.FlagSet {
	flags := pflag.NewFlagSet(program, pflag.ContinueOnError)
	flags.String("mode", cfg.Mode, "Run mode: 'cli' summarizes one file, 'stdio' serves MCP over standard I/O")
	flags.String("file", "", "Form 26AS PDF to summarize (cli mode)")
	flags.String("password", "", "Password of an encrypted statement (usually PAN in lowercase + date of birth)")
	flags.String("output", cfg.Output, "Path of the exported workbook; empty disables export")
	flags.Int("ocr-threshold", cfg.OCRThreshold, "Pages with fewer direct-text characters are OCRed")
	flags.String("ocr-languages", strings.Join(cfg.OCRLanguages, ","), "Comma-separated tesseract languages")
	flags.Int("workers", cfg.Workers, "Pages processed in parallel")
	flags.String("dir", cfg.PDFDirectory, "Directory the MCP tools may read statements from (stdio mode)")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	return flags
}

func usage(program string, flags *pflag.FlagSet, out io.Writer) func() {
	return func() {
		fmt.Fprintf(out, "Usage of %s:\n", program)
		fmt.Fprintf(out, "\nTDS Summarizer - section and deductor totals from a Form 26AS statement\n\n")
		fmt.Fprintf(out, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s statement.pdf                          # summarize, write %s\n", program, DefaultOutput)
		fmt.Fprintf(out, "  %s --file=26as.pdf --password=abcde1234f01011990\n", program)
		fmt.Fprintf(out, "  %s --file=scan.pdf --workers=4 --output=   # OCR in parallel, no export\n", program)
		fmt.Fprintf(out, "  %s --mode=stdio --dir=/path/to/statements  # MCP server\n", program)
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  %s_MODE, %s_FILE, %s_PASSWORD, %s_OUTPUT\n", EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix)
		fmt.Fprintf(out, "  %s_OCR_THRESHOLD, %s_OCR_LANGUAGES, %s_WORKERS\n", EnvPrefix, EnvPrefix, EnvPrefix)
		fmt.Fprintf(out, "  %s_DIR, %s_LOGLEVEL, %s_MAXFILESIZE\n", EnvPrefix, EnvPrefix, EnvPrefix)
	}
}

func versionRequested(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

func populateFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.File = v.GetString("file")
	cfg.Password = v.GetString("password")
	cfg.Output = v.GetString("output")
	cfg.OCRThreshold = v.GetInt("ocr-threshold")
	cfg.OCRLanguages = splitList(v.GetString("ocr-languages"))
	cfg.Workers = v.GetInt("workers")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeCLI && c.Mode != ModeStdio {
		return errors.New("mode must be either 'cli' or 'stdio'")
	}

	if c.Mode == ModeCLI && c.File == "" {
		return errors.New("a statement file is required in cli mode (--file or first argument)")
	}

	if c.Mode == ModeStdio && c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	if c.OCRThreshold < 0 {
		return errors.New("OCR threshold cannot be negative")
	}

	if len(c.OCRLanguages) == 0 {
		return errors.New("at least one OCR language is required")
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The password is never printed.
func (c *Config) String() string {
	password := ""
	if c.Password != "" {
		password = "***"
	}
	return fmt.Sprintf("Config{Mode: %s, File: %s, Password: %s, Output: %s, OCRThreshold: %d, "+
		"OCRLanguages: %s, Workers: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.File, password, c.Output, c.OCRThreshold, strings.Join(c.OCRLanguages, "+"),
		c.Workers, c.PDFDirectory, c.LogLevel, c.MaxFileSize)
}

// IsCLIMode returns true when a single file is summarized and the process exits
func (c *Config) IsCLIMode() bool {
	return c.Mode == ModeCLI
}

// IsStdioMode returns true if the MCP server runs over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
