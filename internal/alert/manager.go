package alert

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Action is the outcome the manager decided for a processed alert.
type Action string

const (
	ActionNotify     Action = "notify"
	ActionSuppress   Action = "suppress"
	ActionGroup      Action = "group"
	ActionRateLimited Action = "rate_limited"
)

// Metrics tallies pipeline-wide alert counters.
type Metrics struct {
	TotalAlerts        int
	DeduplicatedAlerts int
	SuppressedAlerts   int
	RateLimitedAlerts  int
	ActiveGroups       int
}

// ManagerConfig configures a Manager's component windows and feature toggles.
type ManagerConfig struct {
	DedupWindow                time.Duration
	GroupWindow                time.Duration
	RateLimitPerMinute         int
	RateLimitBurst             int
	EscalationThreshold        time.Duration
	AdaptiveBaselineUpdate     time.Duration
	AdaptiveAnomalySigma       float64
	SimilarityThreshold        float64
	EnableDeduplication        bool
	EnableGrouping             bool
	EnableDynamicPriority      bool
	EnableAdaptiveThresholds   bool
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		DedupWindow:              5 * time.Minute,
		GroupWindow:              10 * time.Minute,
		RateLimitPerMinute:       10,
		RateLimitBurst:           5,
		EscalationThreshold:      30 * time.Minute,
		AdaptiveBaselineUpdate:   time.Hour,
		AdaptiveAnomalySigma:     2.0,
		SimilarityThreshold:      0.85,
		EnableDeduplication:      true,
		EnableGrouping:           true,
		EnableDynamicPriority:    true,
		EnableAdaptiveThresholds: true,
	}
}

// Manager is the central coordinator tying deduplication, grouping,
// dynamic prioritization, and adaptive thresholds together behind a
// simple rate limiter, so callers submit raw alerts and get back a
// single decided action.
type Manager struct {
	mu sync.Mutex

	cfg ManagerConfig

	dedup       *Deduplicator
	grouper     *Grouper
	prioritizer *Prioritizer
	adaptive    *AdaptiveThresholds
	history     *History
	limiter     *rate.Limiter

	metrics Metrics

	logger *slog.Logger
}

// NewManager builds a Manager. Rate limiting is approximated with a
// golang.org/x/time/rate token bucket sized to allow RateLimitBurst
// alerts immediately and refill at RateLimitPerMinute/minute — this
// is not bit-for-bit identical to a sliding timestamp window, but
// enforces the same steady-state and burst numbers.
func NewManager(cfg ManagerConfig, source StatsSource, logger *slog.Logger) *Manager {
	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	similarity := cfg.SimilarityThreshold
	if similarity <= 0 {
		similarity = 0.85
	}
	return &Manager{
		cfg:         cfg,
		dedup:       NewDeduplicator(cfg.DedupWindow, similarity, true),
		grouper:     NewGrouper(cfg.GroupWindow, 20),
		prioritizer: NewPrioritizer(DefaultPriorityWeights(), cfg.EscalationThreshold),
		adaptive:    NewAdaptiveThresholds(source, cfg.AdaptiveBaselineUpdate, cfg.AdaptiveAnomalySigma),
		history:     NewHistory(10000, 7*24*time.Hour),
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
		logger:      logger,
	}
}

// ProcessAlert runs alert through the full pipeline and returns the
// decided action along with the group it landed in, if any.
func (m *Manager) ProcessAlert(alert *Entity) (Action, *Group) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.TotalAlerts++

	if !m.limiter.Allow() {
		m.metrics.RateLimitedAlerts++
		m.logger.Debug("alert rate limited", "message", alert.Message)
		return ActionRateLimited, nil
	}

	if m.cfg.EnableDynamicPriority {
		alert.Priority = m.prioritizer.CalculatePriority(*alert)
	}

	if m.cfg.EnableDeduplication {
		if m.dedup.ShouldSuppress(*alert) {
			m.metrics.DeduplicatedAlerts++
			m.logger.Debug("alert deduplicated", "fingerprint", alert.Fingerprint)
			return ActionSuppress, nil
		}
	}

	var group *Group
	if m.cfg.EnableGrouping {
		group = m.grouper.AddToGroup(alert)
		m.metrics.ActiveGroups = len(m.grouper.ActiveGroups())
	}

	m.history.Add(*alert)

	if alert.Suppressed {
		m.metrics.SuppressedAlerts++
		return ActionSuppress, group
	}
	if group != nil && group.Count() > 1 {
		return ActionGroup, group
	}
	return ActionNotify, group
}

// ShouldTriggerAlert checks value against metric's adaptive threshold
// and, if anomalous, constructs a candidate alert (priority left at
// MEDIUM, pending later recalculation by ProcessAlert).
func (m *Manager) ShouldTriggerAlert(metric string, value float64, alertType Type, ctx Context, message string) (bool, *Entity) {
	if m.cfg.EnableAdaptiveThresholds {
		if !m.adaptive.IsAnomaly(metric, value) {
			return false, nil
		}
	}
	alert := NewEntity(alertType, message, PriorityMedium, ctx, map[string]any{"metric": metric, "value": value})
	return true, &alert
}

// EscalateAgedGroups escalates priority on long-standing active groups.
func (m *Manager) EscalateAgedGroups() []*Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	escalated := m.prioritizer.EscalateAgedGroups(m.grouper.ActiveGroups())
	if len(escalated) > 0 {
		m.logger.Info("escalated aged alert groups", "count", len(escalated))
	}
	return escalated
}

// ActiveAlerts returns active groups at or above minPriority, sorted
// highest-priority first.
func (m *Manager) ActiveAlerts(minPriority Priority) []*Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := m.grouper.ActiveGroups()
	if minPriority != 0 {
		var filtered []*Group
		for _, g := range groups {
			if g.Priority >= minPriority {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}
	return m.prioritizer.SortByPriority(groups)
}

// CriticalAlerts returns only CRITICAL priority groups.
func (m *Manager) CriticalAlerts() []*Group { return m.ActiveAlerts(PriorityCritical) }

// HighPriorityAlerts returns HIGH and CRITICAL priority groups.
func (m *Manager) HighPriorityAlerts() []*Group { return m.ActiveAlerts(PriorityHigh) }

// SuppressNoise marks low-priority alerts in oversized groups as
// suppressed, returning the number suppressed.
func (m *Manager) SuppressNoise() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	suppressed := 0
	for _, group := range m.grouper.ActiveGroups() {
		if group.Count() > 10 && group.Priority == PriorityLow {
			for i := range group.Alerts {
				if !group.Alerts[i].Suppressed {
					group.Alerts[i].Suppressed = true
					suppressed++
				}
			}
		}
	}
	m.metrics.SuppressedAlerts += suppressed
	return suppressed
}

// UpdateAdaptiveThresholds forces a baseline recalculation.
func (m *Manager) UpdateAdaptiveThresholds() {
	if !m.cfg.EnableAdaptiveThresholds {
		return
	}
	m.adaptive.UpdateBaselines()
	m.logger.Info("updated adaptive thresholds")
}

// GetMetrics returns a snapshot of the manager's running metrics.
func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.ActiveGroups = len(m.grouper.ActiveGroups())
	return m.metrics
}

// GetHistory returns alert history from the last d.
func (m *Manager) GetHistory(d time.Duration) []Entity {
	return m.history.Recent(d)
}

// ClearAll resets all manager state. Intended for tests.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dedup.Clear()
	m.grouper.Clear()
	m.adaptive.Clear()
	m.history = NewHistory(10000, 7*24*time.Hour)
	m.metrics = Metrics{}
}
