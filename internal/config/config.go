// Package config resolves settings from flags, ROBOBACKUP_* environment
// variables, an optional config file and defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"robobackup/internal/app"
	appErrors "robobackup/internal/errors"
)

const (
	EnvPrefix = "ROBOBACKUP"
	// AtLayout is how trigger times are entered, in local time.
	AtLayout = "2006-01-02 15:04"
)

const (
	KeySource        = "source"
	KeyTarget        = "target"
	KeyAt            = "at"
	KeyDryRun        = "dry_run"
	KeyVerbose       = "verbose"
	KeyMirrorExe     = "mirror.executable"
	KeyLogPrefix     = "mirror.log_prefix"
	KeyTaskPrefix    = "schedule.task_prefix"
	KeyLegacyQuoting = "schedule.legacy_quoting"
	KeyLedgerPath    = "ledger.path"
	KeyWebhook       = "notify.webhook"
	KeyArchiveFormat = "archive.format"
	KeyArchiveDir    = "archive.dir"
	KeyS3Bucket      = "archive.s3.bucket"
	KeyS3Endpoint    = "archive.s3.endpoint"
	KeyS3Region      = "archive.s3.region"
	KeyS3AccessKey   = "archive.s3.access_key"
	KeyS3SecretKey   = "archive.s3.secret_key"
	KeyS3Prefix      = "archive.s3.prefix"
	KeyS3PathStyle   = "archive.s3.path_style"
)

// flagKeys maps CLI flag names to config keys. S3 credentials have no flag;
// they are read from the environment or the config file.
var flagKeys = map[string]string{
	"source":         KeySource,
	"target":         KeyTarget,
	"at":             KeyAt,
	"dry-run":        KeyDryRun,
	"verbose":        KeyVerbose,
	"log-prefix":     KeyLogPrefix,
	"task-prefix":    KeyTaskPrefix,
	"legacy-quoting": KeyLegacyQuoting,
	"ledger":         KeyLedgerPath,
	"webhook":        KeyWebhook,
	"archive":        KeyArchiveFormat,
	"archive-dir":    KeyArchiveDir,
	"s3-bucket":      KeyS3Bucket,
	"s3-endpoint":    KeyS3Endpoint,
	"s3-region":      KeyS3Region,
	"s3-prefix":      KeyS3Prefix,
}

type S3 struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
	PathStyle bool
}

type Archive struct {
	Format string
	Dir    string
	S3     S3
}

type Config struct {
	Source  string
	Target  string
	At      *time.Time
	DryRun  bool
	Verbose bool

	MirrorExecutable string
	LogPrefix        string
	TaskPrefix       string
	LegacyQuoting    bool

	LedgerPath string
	WebhookURL string
	Archive    Archive
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyMirrorExe, app.DefaultMirrorExecutable)
	v.SetDefault(KeyLogPrefix, app.DefaultLogPrefix)
	v.SetDefault(KeyTaskPrefix, app.DefaultTaskPrefix)
	v.SetDefault(KeyLegacyQuoting, false)
	v.SetDefault(KeyArchiveFormat, "none")
	v.SetDefault(KeyS3Prefix, "robobackup")
	v.SetDefault(KeyS3PathStyle, false)
	return v
}

// RegisterFlags defines every flag that BindFlags knows how to bind.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("source", "s", "", "Source directory to mirror from")
	flags.StringP("target", "t", "", "Target directory to mirror to")
	flags.String("at", "", "Schedule the backup for this local time (YYYY-MM-DD HH:MM)")
	flags.BoolP("dry-run", "d", false, "Print what would be launched without launching it")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.String("log-prefix", app.DefaultLogPrefix, "File name prefix of the robocopy log")
	flags.String("task-prefix", app.DefaultTaskPrefix, "Name prefix of scheduled tasks")
	flags.Bool("legacy-quoting", false, "Do not escape nested quotes in scheduled task commands")
	flags.String("ledger", "", "Path of the schedule ledger file")
	flags.String("webhook", "", "Chat webhook URL to notify about outcomes")
	flags.String("archive", "none", "Compress finished logs: none, gzip or zstd")
	flags.String("archive-dir", "", "Directory for compressed logs (default: next to the log)")
	flags.String("s3-bucket", "", "Upload archived logs to this S3 bucket")
	flags.String("s3-endpoint", "", "Custom S3-compatible endpoint")
	flags.String("s3-region", "", "S3 region")
	flags.String("s3-prefix", "robobackup", "Key prefix for uploaded logs")
}

// BindFlags lets explicitly set flags override every other source. Flags
// missing from the set are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return appErrors.Wrap(appErrors.InvalidConfig, "bind flag", name, err)
		}
	}
	return nil
}

// ReadFile merges a yaml, json or toml config file. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return appErrors.Wrap(appErrors.InvalidConfig, "read config", path, err)
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Source:           strings.TrimSpace(v.GetString(KeySource)),
		Target:           strings.TrimSpace(v.GetString(KeyTarget)),
		DryRun:           v.GetBool(KeyDryRun),
		Verbose:          v.GetBool(KeyVerbose),
		MirrorExecutable: v.GetString(KeyMirrorExe),
		LogPrefix:        v.GetString(KeyLogPrefix),
		TaskPrefix:       v.GetString(KeyTaskPrefix),
		LegacyQuoting:    v.GetBool(KeyLegacyQuoting),
		LedgerPath:       v.GetString(KeyLedgerPath),
		WebhookURL:       strings.TrimSpace(v.GetString(KeyWebhook)),
		Archive: Archive{
			Format: strings.ToLower(strings.TrimSpace(v.GetString(KeyArchiveFormat))),
			Dir:    v.GetString(KeyArchiveDir),
			S3: S3{
				Bucket:    v.GetString(KeyS3Bucket),
				Endpoint:  v.GetString(KeyS3Endpoint),
				Region:    v.GetString(KeyS3Region),
				AccessKey: v.GetString(KeyS3AccessKey),
				SecretKey: v.GetString(KeyS3SecretKey),
				Prefix:    v.GetString(KeyS3Prefix),
				PathStyle: v.GetBool(KeyS3PathStyle),
			},
		},
	}

	switch cfg.Archive.Format {
	case "", "none", "gzip", "zstd":
	default:
		return Config{}, appErrors.Wrap(appErrors.InvalidConfig, "load", KeyArchiveFormat, fmt.Errorf("unknown archive format %q", cfg.Archive.Format))
	}
	if cfg.Archive.S3.AccessKey != "" && cfg.Archive.S3.SecretKey == "" {
		return Config{}, appErrors.Wrap(appErrors.InvalidConfig, "load", KeyS3SecretKey, errors.New("an S3 access key needs a secret key"))
	}

	if raw := strings.TrimSpace(v.GetString(KeyAt)); raw != "" {
		at, err := ParseAt(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.At = &at
	}
	return cfg, nil
}

func ParseAt(raw string) (time.Time, error) {
	at, err := time.ParseInLocation(AtLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, appErrors.Wrap(appErrors.InvalidConfig, "parse", KeyAt, fmt.Errorf("invalid time %q, use YYYY-MM-DD HH:MM", raw))
	}
	return at, nil
}
