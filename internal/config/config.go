package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/scoreloom-cli/internal/analysis"
	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

// TrackBenchmark holds the configurable thresholds of one track.
type TrackBenchmark struct {
	PassThreshold float64  `mapstructure:"pass_threshold" yaml:"pass_threshold"`
	Target        float64  `mapstructure:"target" yaml:"target"`
	KeySubjects   []string `mapstructure:"key_subjects" yaml:"key_subjects"`
}

// Benchmarks is the benchmarks section of the config file.
type Benchmarks struct {
	JEE              TrackBenchmark `mapstructure:"jee" yaml:"jee"`
	NEET             TrackBenchmark `mapstructure:"neet" yaml:"neet"`
	OverallPass      float64        `mapstructure:"overall_pass" yaml:"overall_pass"`
	OverallBenchmark float64        `mapstructure:"overall_benchmark" yaml:"overall_benchmark"`
}

// Global configuration structure.
type Global struct {
	DBPath           string `mapstructure:"db_path" yaml:"db_path"`
	LogLevel         string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat        string `mapstructure:"log_format" yaml:"log_format"`
	DedupPolicy      string `mapstructure:"dedup_policy" yaml:"dedup_policy"`
	StrictValidation bool   `mapstructure:"strict_validation" yaml:"strict_validation"`
	ServerAddress    string `mapstructure:"server_address" yaml:"server_address"`

	Benchmarks Benchmarks `mapstructure:"benchmarks" yaml:"benchmarks"`
}

// EnvPrefix prefixes every environment override, e.g. SCORELOOM_DB_PATH or
// SCORELOOM_BENCHMARKS_JEE_TARGET.
const EnvPrefix = "SCORELOOM"

// Dir returns ~/.scoreloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".scoreloom"), nil
}

func setDefaults(v *viper.Viper, dir string) {
	def := analysis.DefaultBenchmarks()
	jee, neet := def.Tracks[record.TrackJEE], def.Tracks[record.TrackNEET]

	v.SetDefault("db_path", filepath.Join(dir, "student_performance.db"))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("dedup_policy", "content")
	v.SetDefault("strict_validation", false)
	v.SetDefault("server_address", ":8080")
	v.SetDefault("benchmarks.jee.pass_threshold", jee.PassThreshold)
	v.SetDefault("benchmarks.jee.target", jee.Target)
	v.SetDefault("benchmarks.jee.key_subjects", jee.KeySubjects)
	v.SetDefault("benchmarks.neet.pass_threshold", neet.PassThreshold)
	v.SetDefault("benchmarks.neet.target", neet.Target)
	v.SetDefault("benchmarks.neet.key_subjects", neet.KeySubjects)
	v.SetDefault("benchmarks.overall_pass", def.OverallPass)
	v.SetDefault("benchmarks.overall_benchmark", def.OverallBenchmark)
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.scoreloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// A .env file in the working directory, if present, seeds the environment first.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, dir)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}
	return &c, nil
}

// AnalysisBenchmarks converts the benchmarks section into the lookup table used by
// aggregation and insights.
func (g *Global) AnalysisBenchmarks() analysis.Benchmarks {
	b := g.Benchmarks
	conv := func(t TrackBenchmark) analysis.Benchmark {
		return analysis.Benchmark{PassThreshold: t.PassThreshold, Target: t.Target, KeySubjects: t.KeySubjects}
	}
	return analysis.Benchmarks{
		Tracks: map[record.Track]analysis.Benchmark{
			record.TrackJEE:  conv(b.JEE),
			record.TrackNEET: conv(b.NEET),
		},
		OverallPass:      b.OverallPass,
		OverallBenchmark: b.OverallBenchmark,
	}
}

// Keys lists the keys accepted by Set, in display order.
var Keys = []string{
	"db_path", "log_level", "log_format", "dedup_policy", "strict_validation", "server_address",
	"benchmarks.jee.pass_threshold", "benchmarks.jee.target", "benchmarks.jee.key_subjects",
	"benchmarks.neet.pass_threshold", "benchmarks.neet.target", "benchmarks.neet.key_subjects",
	"benchmarks.overall_pass", "benchmarks.overall_benchmark",
}

// Get returns the display value of key.
func (g *Global) Get(key string) (string, error) {
	b := &g.Benchmarks
	switch key {
	case "db_path":
		return g.DBPath, nil
	case "log_level":
		return g.LogLevel, nil
	case "log_format":
		return g.LogFormat, nil
	case "dedup_policy":
		return g.DedupPolicy, nil
	case "strict_validation":
		return strconv.FormatBool(g.StrictValidation), nil
	case "server_address":
		return g.ServerAddress, nil
	case "benchmarks.jee.pass_threshold":
		return record.FormatNumber(b.JEE.PassThreshold), nil
	case "benchmarks.jee.target":
		return record.FormatNumber(b.JEE.Target), nil
	case "benchmarks.jee.key_subjects":
		return strings.Join(b.JEE.KeySubjects, ","), nil
	case "benchmarks.neet.pass_threshold":
		return record.FormatNumber(b.NEET.PassThreshold), nil
	case "benchmarks.neet.target":
		return record.FormatNumber(b.NEET.Target), nil
	case "benchmarks.neet.key_subjects":
		return strings.Join(b.NEET.KeySubjects, ","), nil
	case "benchmarks.overall_pass":
		return record.FormatNumber(b.OverallPass), nil
	case "benchmarks.overall_benchmark":
		return record.FormatNumber(b.OverallBenchmark), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val and assigns it to key.
func (g *Global) Set(key, val string) error {
	b := &g.Benchmarks
	switch key {
	case "db_path":
		g.DBPath = val
	case "log_level":
		switch strings.ToLower(val) {
		case "trace", "debug", "info", "warn", "error":
			g.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "console", "json":
			g.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
	case "dedup_policy":
		switch strings.ToLower(val) {
		case "content", "none":
			g.DedupPolicy = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid dedup_policy: %s (use content or none)", val)
		}
	case "strict_validation":
		v, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for strict_validation: %v", val)
		}
		g.StrictValidation = v
	case "server_address":
		g.ServerAddress = val
	case "benchmarks.jee.pass_threshold":
		return setPercent(&b.JEE.PassThreshold, key, val)
	case "benchmarks.jee.target":
		return setPercent(&b.JEE.Target, key, val)
	case "benchmarks.jee.key_subjects":
		b.JEE.KeySubjects = splitList(val)
	case "benchmarks.neet.pass_threshold":
		return setPercent(&b.NEET.PassThreshold, key, val)
	case "benchmarks.neet.target":
		return setPercent(&b.NEET.Target, key, val)
	case "benchmarks.neet.key_subjects":
		b.NEET.KeySubjects = splitList(val)
	case "benchmarks.overall_pass":
		return setPercent(&b.OverallPass, key, val)
	case "benchmarks.overall_benchmark":
		return setPercent(&b.OverallBenchmark, key, val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setPercent(dst *float64, key, val string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil || f < 0 || f > 100 {
		return fmt.Errorf("invalid percentage for %s: %v", key, val)
	}
	*dst = f
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
