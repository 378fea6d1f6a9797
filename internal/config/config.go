// Package config handles pathwatch daemon configuration loading and
// validation.
//
// # Configuration Sources
//
// Configuration is resolved in order of precedence, lowest first:
// 1. Defaults
// 2. Config file (YAML)
// 3. Environment variables (PATHWATCH_*)
// 4. Command-line flags
//
// # Example Config File
//
//	target_ip: 1.1.1.1
//	interval: 1s
//
//	alerting:
//	  cooldown: 5s
//	  high_latency_threshold_ms: 100
//
//	dns:
//	  enable_benchmark: true
//	  benchmark_servers: ["system"]
//
//	mtu:
//	  enable_path_discovery: true
//
//	health:
//	  addr: "0.0.0.0:8001"
//
//	metrics:
//	  addr: "0.0.0.0:8000"
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the complete, single configuration object for the daemon.
// Open Question #1 (config.py / settings.py duplication in the source
// system) is resolved by collapsing everything into this one struct.
type Settings struct {
	Version  string        `yaml:"version"`
	TargetIP string        `yaml:"target_ip"`
	Interval time.Duration `yaml:"interval"`

	WindowSize    int           `yaml:"window_size"`
	LatencyWindow int           `yaml:"latency_window"`
	LogDir        string        `yaml:"log_dir"`
	LogTruncate   bool          `yaml:"log_truncate_on_start"`

	MaxConcurrentProcs int           `yaml:"max_concurrent_procs"`
	ForceKillTimeout   time.Duration `yaml:"force_kill_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`

	Alerting AlertingConfig `yaml:"alerting"`
	DNS      DNSConfig      `yaml:"dns"`
	Trace    TraceConfig    `yaml:"traceroute"`
	MTU      MTUConfig      `yaml:"mtu"`
	TTL      TTLConfig      `yaml:"ttl"`
	Hop      HopConfig      `yaml:"hop"`
	Problem  ProblemConfig  `yaml:"problem"`
	Route    RouteConfig    `yaml:"route"`
	Health   HealthConfig   `yaml:"health"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Secrets  SecretsConfig  `yaml:"secrets"`
}

type AlertingConfig struct {
	Cooldown                 time.Duration `yaml:"cooldown"`
	HighLatencyThresholdMs   float64       `yaml:"high_latency_threshold_ms"`
	PacketLossThresholdPct   float64       `yaml:"packet_loss_threshold_pct"`
	AvgLatencyThresholdMs    float64       `yaml:"avg_latency_threshold_ms"`
	ConsecutiveLossThreshold int           `yaml:"consecutive_loss_threshold"`
	JitterThresholdMs        float64       `yaml:"jitter_threshold_ms"`
	MaxActiveAlerts          int           `yaml:"max_active_alerts"`

	DedupWindow          time.Duration `yaml:"dedup_window"`
	GroupWindow          time.Duration `yaml:"group_window"`
	RateLimitPerMinute   int           `yaml:"rate_limit_per_minute"`
	RateLimitBurst       int           `yaml:"rate_limit_burst"`
	EscalationTime       time.Duration `yaml:"escalation_time"`
	SimilarityThreshold  float64       `yaml:"similarity_threshold"`
	AdaptiveAnomalySigma float64       `yaml:"adaptive_anomaly_sigma"`
}

type DNSConfig struct {
	CheckInterval    time.Duration `yaml:"check_interval"`
	SlowThresholdMs  float64       `yaml:"slow_threshold_ms"`
	RecordTypes      []string      `yaml:"record_types"`
	EnableBenchmark  bool          `yaml:"enable_benchmark"`
	BenchmarkDomain  string        `yaml:"benchmark_domain"`
	BenchmarkServers []string      `yaml:"benchmark_servers"`
	HistorySize      int           `yaml:"history_size"`
}

type TraceConfig struct {
	EnableAuto      bool          `yaml:"enable_auto"`
	TriggerLosses   int           `yaml:"trigger_losses"`
	Cooldown        time.Duration `yaml:"cooldown"`
	MaxHops         int           `yaml:"max_hops"`
}

type MTUConfig struct {
	CheckInterval       time.Duration `yaml:"check_interval"`
	EnablePathDiscovery bool          `yaml:"enable_path_discovery"`
	PathCheckInterval   time.Duration `yaml:"path_check_interval"`
	DefaultMTU          int           `yaml:"default_mtu"`
	IssueConsecutive    int           `yaml:"issue_consecutive"`
	ClearConsecutive    int           `yaml:"clear_consecutive"`
	DiffThreshold       int           `yaml:"diff_threshold"`
}

type TTLConfig struct {
	CheckInterval time.Duration `yaml:"check_interval"`
}

type HopConfig struct {
	PingInterval       time.Duration `yaml:"ping_interval"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	RediscoverInterval time.Duration `yaml:"rediscover_interval"`
	LatencyGoodMs      float64       `yaml:"latency_good_ms"`
	LatencyWarnMs      float64       `yaml:"latency_warn_ms"`
	HistorySize        int           `yaml:"history_size"`
}

type ProblemConfig struct {
	AnalysisInterval   time.Duration `yaml:"analysis_interval"`
	HistorySize        int           `yaml:"history_size"`
	PredictionWindow   time.Duration `yaml:"prediction_window"`
	LogSuppression     time.Duration `yaml:"log_suppression"`
}

type RouteConfig struct {
	LogSuppression         time.Duration `yaml:"log_suppression"`
	AnalysisInterval       time.Duration `yaml:"analysis_interval"`
	HistorySize            int           `yaml:"history_size"`
	HopTimeoutThresholdMs  float64       `yaml:"hop_timeout_threshold_ms"`
	ChangeConsecutive      int           `yaml:"change_consecutive"`
	ChangeHopDiff          int           `yaml:"change_hop_diff"`
	IgnoreFirstHops        int           `yaml:"ignore_first_hops"`
	SaveOnChangeConsecutive int          `yaml:"save_on_change_consecutive"`
}

type HealthConfig struct {
	Addr           string   `yaml:"addr"`
	AuthUser       string   `yaml:"auth_user"`
	AuthPass       string   `yaml:"auth_pass"`
	AuthToken      string   `yaml:"auth_token"`
	TokenHeader    string   `yaml:"token_header"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type SecretsConfig struct {
	Backend          string `yaml:"backend"`
	OnePasswordVault string `yaml:"onepassword_vault"`
	LocalKeyDir      string `yaml:"local_key_dir"`
}

// Default returns a Settings populated with the daemon's built-in
// defaults, matching the original system's config.py constants.
func Default() *Settings {
	return &Settings{
		Version:       "1.0.0",
		TargetIP:      "1.1.1.1",
		Interval:      time.Second,
		WindowSize:    1800,
		LatencyWindow: 600,
		LogDir:        "~/.pathwatch",
		LogTruncate:   true,

		MaxConcurrentProcs: 50,
		ForceKillTimeout:   5 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		Alerting: AlertingConfig{
			Cooldown:                 5 * time.Second,
			HighLatencyThresholdMs:   100,
			PacketLossThresholdPct:   5.0,
			AvgLatencyThresholdMs:    100,
			ConsecutiveLossThreshold: 5,
			JitterThresholdMs:        30,
			MaxActiveAlerts:          3,
			DedupWindow:              300 * time.Second,
			GroupWindow:              600 * time.Second,
			RateLimitPerMinute:       10,
			RateLimitBurst:           5,
			EscalationTime:           30 * time.Minute,
			SimilarityThreshold:      0.85,
			AdaptiveAnomalySigma:     2.0,
		},
		DNS: DNSConfig{
			CheckInterval:    10 * time.Second,
			SlowThresholdMs:  100,
			RecordTypes:      []string{"A", "AAAA", "CNAME", "MX", "TXT", "NS"},
			EnableBenchmark:  true,
			BenchmarkDomain:  "cloudflare.com",
			BenchmarkServers: []string{"system"},
			HistorySize:      50,
		},
		Trace: TraceConfig{
			EnableAuto:    false,
			TriggerLosses: 3,
			Cooldown:      300 * time.Second,
			MaxHops:       15,
		},
		MTU: MTUConfig{
			CheckInterval:       30 * time.Second,
			EnablePathDiscovery: true,
			PathCheckInterval:   120 * time.Second,
			DefaultMTU:          1500,
			IssueConsecutive:    3,
			ClearConsecutive:    2,
			DiffThreshold:       50,
		},
		TTL: TTLConfig{CheckInterval: 10 * time.Second},
		Hop: HopConfig{
			PingInterval:       time.Second,
			PingTimeout:        500 * time.Millisecond,
			RediscoverInterval: time.Hour,
			LatencyGoodMs:      50,
			LatencyWarnMs:      100,
			HistorySize:        30,
		},
		Problem: ProblemConfig{
			AnalysisInterval: 60 * time.Second,
			HistorySize:      100,
			PredictionWindow: 300 * time.Second,
			LogSuppression:   6000 * time.Second,
		},
		Route: RouteConfig{
			LogSuppression:          6000 * time.Second,
			AnalysisInterval:        1800 * time.Second,
			HistorySize:             10,
			HopTimeoutThresholdMs:   3000,
			ChangeConsecutive:       2,
			ChangeHopDiff:           2,
			IgnoreFirstHops:         2,
			SaveOnChangeConsecutive: 2,
		},
		Health:  HealthConfig{Addr: "0.0.0.0:8001", TokenHeader: "X-Health-Token"},
		Metrics: MetricsConfig{Addr: "0.0.0.0:8000"},
		Secrets: SecretsConfig{Backend: "auto"},
	}
}

// LoadFile loads a YAML config file on top of Default().
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks required fields and basic sanity.
func (s *Settings) Validate() error {
	if s.TargetIP == "" {
		return fmt.Errorf("target_ip is required")
	}
	if net.ParseIP(s.TargetIP) == nil {
		if _, err := net.LookupHost(s.TargetIP); err != nil {
			return fmt.Errorf("target_ip %q is neither a literal IP nor resolvable: %w", s.TargetIP, err)
		}
	}
	if s.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if s.WindowSize <= 0 || s.LatencyWindow <= 0 {
		return fmt.Errorf("window_size and latency_window must be positive")
	}
	return nil
}

// ApplyEnv applies PATHWATCH_*-prefixed environment overrides.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv("PATHWATCH_TARGET_IP"); v != "" {
		s.TargetIP = v
	}
	if v := os.Getenv("PATHWATCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.Interval = d
		} else if n, err := strconv.Atoi(v); err == nil {
			s.Interval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("PATHWATCH_HIGH_LATENCY_THRESHOLD_MS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Alerting.HighLatencyThresholdMs = f
		}
	}
	if v := os.Getenv("PATHWATCH_PACKET_LOSS_THRESHOLD_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Alerting.PacketLossThresholdPct = f
		}
	}
	if v := os.Getenv("PATHWATCH_DNS_BENCHMARK_SERVERS"); v != "" {
		s.DNS.BenchmarkServers = strings.Split(v, ",")
	}
	if v := os.Getenv("PATHWATCH_HEALTH_ADDR"); v != "" {
		s.Health.Addr = v
	}
	if v := os.Getenv("PATHWATCH_METRICS_ADDR"); v != "" {
		s.Metrics.Addr = v
	}
	if v := os.Getenv("HEALTH_AUTH_USER"); v != "" {
		s.Health.AuthUser = v
	}
	if v := os.Getenv("HEALTH_AUTH_PASS"); v != "" {
		s.Health.AuthPass = v
	}
	if v := os.Getenv("HEALTH_AUTH_TOKEN"); v != "" {
		s.Health.AuthToken = v
	}
	if v := os.Getenv("HEALTH_TOKEN_HEADER"); v != "" {
		s.Health.TokenHeader = v
	}
	if v := os.Getenv("HEALTH_TRUSTED_PROXIES"); v != "" {
		s.Health.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("ALERT_DEDUP_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Alerting.DedupWindow = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("ALERT_GROUP_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Alerting.GroupWindow = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("ALERT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Alerting.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("ALERT_BURST_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Alerting.RateLimitBurst = n
		}
	}
	if v := os.Getenv("ALERT_ESCALATION_TIME_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Alerting.EscalationTime = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("ALERT_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Alerting.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("ADAPTIVE_ANOMALY_SIGMA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Alerting.AdaptiveAnomalySigma = f
		}
	}
	if v := os.Getenv("MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxConcurrentProcs = n
		}
	}
	if v := os.Getenv("FORCE_KILL_TIMEOUT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.ForceKillTimeout = time.Duration(f * float64(time.Second))
		}
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.ShutdownTimeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("PATHWATCH_LOG_DIR"); v != "" {
		s.LogDir = v
	}
	if v := os.Getenv("PATHWATCH_SECRETS_BACKEND"); v != "" {
		s.Secrets.Backend = v
	}
}
