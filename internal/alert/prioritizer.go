package alert

import (
	"sort"
	"time"
)

// PriorityWeights weights the factors that go into a dynamic priority score.
type PriorityWeights struct {
	BusinessImpact      float64
	UserImpact          float64
	ServiceCriticality  float64
	TimeFactor          float64
}

func DefaultPriorityWeights() PriorityWeights {
	return PriorityWeights{BusinessImpact: 0.4, UserImpact: 0.3, ServiceCriticality: 0.2, TimeFactor: 0.1}
}

type impactScore struct {
	business float64
	user     float64
}

var alertImpactMap = map[Type]impactScore{
	TypeConnectionLost: {business: 1.0, user: 1.0},
	TypePacketLoss:     {business: 0.7, user: 0.8},
	TypeHighLatency:    {business: 0.6, user: 0.7},
	TypeHighJitter:     {business: 0.5, user: 0.6},
	TypeHighAvgLatency: {business: 0.6, user: 0.7},
	TypeMTUIssue:       {business: 0.5, user: 0.6},
	TypeRouteChange:    {business: 0.4, user: 0.3},
	TypeDNSFailure:     {business: 0.8, user: 0.9},
	TypeIPChange:       {business: 0.3, user: 0.2},
	TypeHopIssue:       {business: 0.5, user: 0.4},
	TypeMemoryExceeded: {business: 0.9, user: 0.7},
	TypeAnomaly:        {business: 0.6, user: 0.5},
}

var defaultImpact = impactScore{business: 0.5, user: 0.5}

var serviceCriticalityMap = map[string]float64{
	"ping":    1.0,
	"network": 1.0,
	"dns":     0.8,
	"mtu":     0.6,
	"route":   0.7,
	"ip":      0.5,
	"hop":     0.6,
	"memory":  0.9,
	"default": 0.5,
}

// Prioritizer computes and escalates dynamic alert priorities based on
// business impact, user impact, service criticality, and alert age.
type Prioritizer struct {
	weights             PriorityWeights
	escalationThreshold time.Duration
}

func NewPrioritizer(weights PriorityWeights, escalationThreshold time.Duration) *Prioritizer {
	return &Prioritizer{weights: weights, escalationThreshold: escalationThreshold}
}

// CalculatePriority computes a priority for alert from its type, the
// criticality of its service, and its age.
func (p *Prioritizer) CalculatePriority(alert Entity) Priority {
	impact, ok := alertImpactMap[alert.AlertType]
	if !ok {
		impact = defaultImpact
	}

	serviceScore, ok := serviceCriticalityMap[alert.Context.Service]
	if !ok {
		serviceScore = serviceCriticalityMap["default"]
	}

	timeScore := p.calculateTimeFactor(alert)

	total := impact.business*p.weights.BusinessImpact +
		impact.user*p.weights.UserImpact +
		serviceScore*p.weights.ServiceCriticality +
		timeScore*p.weights.TimeFactor

	return scoreToPriority(total)
}

func (p *Prioritizer) calculateTimeFactor(alert Entity) float64 {
	age := time.Since(alert.Timestamp).Seconds()
	normalized := age / p.escalationThreshold.Seconds()
	if normalized > 1.0 {
		normalized = 1.0
	}
	return normalized
}

func scoreToPriority(score float64) Priority {
	switch {
	case score >= 0.8:
		return PriorityCritical
	case score >= 0.6:
		return PriorityHigh
	case score >= 0.4:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// EscalateAgedGroups bumps the priority of every alert (and the group
// itself) in groups old enough to escalate, returning the groups that
// were escalated.
func (p *Prioritizer) EscalateAgedGroups(groups []*Group) []*Group {
	var escalated []*Group
	for _, group := range groups {
		if !group.Active {
			continue
		}
		if !group.ShouldEscalate(true, p.escalationThreshold) {
			continue
		}
		for i := range group.Alerts {
			group.Alerts[i].Priority = escalatePriority(group.Alerts[i].Priority)
		}
		group.Priority = highestPriority(group.Alerts, group.Priority)
		escalated = append(escalated, group)
	}
	return escalated
}

func escalatePriority(current Priority) Priority {
	switch current {
	case PriorityCritical:
		return PriorityCritical
	case PriorityHigh:
		return PriorityCritical
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

func highestPriority(alerts []Entity, fallback Priority) Priority {
	if len(alerts) == 0 {
		return fallback
	}
	max := alerts[0].Priority
	for _, a := range alerts[1:] {
		if a.Priority > max {
			max = a.Priority
		}
	}
	return max
}

// RecalculateGroupPriority returns the group's priority, taking the
// highest priority among its alerts and escalating it if the group is
// old enough.
func (p *Prioritizer) RecalculateGroupPriority(group *Group) Priority {
	if len(group.Alerts) == 0 {
		return PriorityLow
	}
	max := highestPriority(group.Alerts, PriorityLow)
	if group.ShouldEscalate(true, p.escalationThreshold) {
		max = escalatePriority(max)
	}
	return max
}

// SortByPriority sorts groups by priority then age, highest/oldest first.
func (p *Prioritizer) SortByPriority(groups []*Group) []*Group {
	sorted := make([]*Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].AgeSeconds() > sorted[j].AgeSeconds()
	})
	return sorted
}
