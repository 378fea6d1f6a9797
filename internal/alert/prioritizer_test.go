package alert

import (
	"testing"
	"time"
)

func TestCalculatePriorityConnectionLostOnCoreService(t *testing.T) {
	p := NewPrioritizer(DefaultPriorityWeights(), 30*time.Minute)
	a := NewEntity(TypeConnectionLost, "connection lost", PriorityLow, Context{Service: "ping"}, nil)
	if got := p.CalculatePriority(a); got != PriorityCritical {
		t.Errorf("priority = %v, want CRITICAL", got)
	}
}

func TestCalculatePriorityLowImpactType(t *testing.T) {
	p := NewPrioritizer(DefaultPriorityWeights(), 30*time.Minute)
	a := NewEntity(TypeIPChange, "ip changed", PriorityLow, Context{Service: "ip"}, nil)
	if got := p.CalculatePriority(a); got == PriorityCritical {
		t.Error("low-impact alert type should not score CRITICAL")
	}
}

func TestCalculatePriorityUnknownServiceUsesDefault(t *testing.T) {
	p := NewPrioritizer(DefaultPriorityWeights(), 30*time.Minute)
	a := NewEntity(TypeAnomaly, "weird", PriorityLow, Context{Service: "something-unmapped"}, nil)
	_ = p.CalculatePriority(a)
}

func TestCalculateTimeFactorCapsAtOne(t *testing.T) {
	p := NewPrioritizer(DefaultPriorityWeights(), time.Millisecond)
	a := NewEntity(TypeAnomaly, "old", PriorityLow, Context{Service: "ping"}, nil)
	a.Timestamp = time.Now().Add(-time.Hour)
	if got := p.calculateTimeFactor(a); got != 1.0 {
		t.Errorf("time factor = %v, want 1.0 (capped)", got)
	}
}

func TestEscalateAgedGroupsBumpsPriority(t *testing.T) {
	p := NewPrioritizer(DefaultPriorityWeights(), time.Millisecond)
	g := NewGroup("g1")
	a := NewEntity(TypePacketLoss, "loss", PriorityMedium, Context{Service: "ping"}, nil)
	g.AddAlert(&a)
	g.CreatedAt = time.Now().Add(-time.Hour)
	escalated := p.EscalateAgedGroups([]*Group{g})
	if len(escalated) != 1 {
		t.Fatal("expected group to be escalated")
	}
	if g.Alerts[0].Priority != PriorityHigh {
		t.Errorf("alert priority = %v, want HIGH after escalation from MEDIUM", g.Alerts[0].Priority)
	}
}

func TestSortByPriorityOrdersDescending(t *testing.T) {
	p := NewPrioritizer(DefaultPriorityWeights(), 30*time.Minute)
	low := NewGroup("low")
	low.Priority = PriorityLow
	high := NewGroup("high")
	high.Priority = PriorityHigh
	sorted := p.SortByPriority([]*Group{low, high})
	if sorted[0].GroupID != "high" {
		t.Errorf("expected high priority group first, got %s", sorted[0].GroupID)
	}
}
