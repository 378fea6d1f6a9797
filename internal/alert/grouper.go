package alert

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var rootCauseMap = map[Type]map[Type]bool{
	TypeConnectionLost: {TypePacketLoss: true, TypeHighLatency: true, TypeHighJitter: true},
	TypeMTUIssue:       {TypePacketLoss: true, TypeHighLatency: true},
	TypeRouteChange:    {TypeHighLatency: true, TypePacketLoss: true},
	TypeDNSFailure:     {TypeConnectionLost: true},
}

// Grouper clusters related alerts by context, root-cause correlation,
// and temporal proximity to cut down on notification noise.
type Grouper struct {
	mu sync.Mutex

	window      time.Duration
	maxGroupSize int

	groups       map[string]*Group
	contextIndex map[string]string
}

func NewGrouper(window time.Duration, maxGroupSize int) *Grouper {
	return &Grouper{
		window:       window,
		maxGroupSize: maxGroupSize,
		groups:       make(map[string]*Group),
		contextIndex: make(map[string]string),
	}
}

// AddToGroup adds alert to a matching existing group, or creates a new
// one, and returns the group it ended up in.
func (g *Grouper) AddToGroup(alert *Entity) *Group {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cleanupExpired()

	if group := g.findMatchingGroup(alert); group != nil {
		if group.Count() < g.maxGroupSize {
			group.AddAlert(alert)
			return group
		}
	}

	group := g.createGroup(alert)
	group.AddAlert(alert)
	return group
}

func (g *Grouper) findMatchingGroup(alert *Entity) *Group {
	contextHash := hashContext(alert.Context)
	if id, ok := g.contextIndex[contextHash]; ok {
		if group, ok := g.groups[id]; ok && group.Active {
			return group
		}
	}

	if group := g.findCorrelatedGroup(alert); group != nil {
		return group
	}

	return g.findTemporalGroup(alert)
}

func (g *Grouper) findCorrelatedGroup(alert *Entity) *Group {
	for _, group := range g.groups {
		if !group.Active || len(group.Alerts) == 0 {
			continue
		}
		for _, existing := range group.Alerts {
			if isCorrelated(existing, *alert) {
				return group
			}
		}
	}
	return nil
}

func isCorrelated(a1, a2 Entity) bool {
	if related, ok := rootCauseMap[a1.AlertType]; ok {
		if related[a2.AlertType] && a1.Context.Target == a2.Context.Target {
			return true
		}
	}
	if related, ok := rootCauseMap[a2.AlertType]; ok {
		if related[a1.AlertType] && a1.Context.Target == a2.Context.Target {
			return true
		}
	}
	return false
}

func (g *Grouper) findTemporalGroup(alert *Entity) *Group {
	now := time.Now()
	for _, group := range g.groups {
		if !group.Active || group.Context == nil {
			continue
		}
		if now.Sub(group.CreatedAt) > g.window {
			continue
		}
		if group.Context.Service == alert.Context.Service && group.Context.Component == alert.Context.Component {
			return group
		}
	}
	return nil
}

func (g *Grouper) createGroup(alert *Entity) *Group {
	id := uuid.New().String()[:8]
	group := NewGroup(id)
	ctx := alert.Context
	group.Context = &ctx
	g.groups[id] = group
	g.contextIndex[hashContext(alert.Context)] = id
	return group
}

func hashContext(ctx Context) string {
	key := fmt.Sprintf("%s|%s|%s|%s", ctx.Service, ctx.Component, ctx.ProblemType, ctx.Target)
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:8]
}

func (g *Grouper) cleanupExpired() {
	now := time.Now()
	var expired []string
	for id, group := range g.groups {
		if now.Sub(group.UpdatedAt) > g.window {
			group.Active = false
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		group := g.groups[id]
		if group.Context != nil {
			delete(g.contextIndex, hashContext(*group.Context))
		}
		delete(g.groups, id)
	}
}

// ActiveGroups returns all currently active groups.
func (g *Grouper) ActiveGroups() []*Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*Group
	for _, group := range g.groups {
		if group.Active {
			out = append(out, group)
		}
	}
	return out
}

// GroupByID looks up a group by ID.
func (g *Grouper) GroupByID(id string) (*Group, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	group, ok := g.groups[id]
	return group, ok
}

// Clear removes all groups.
func (g *Grouper) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groups = make(map[string]*Group)
	g.contextIndex = make(map[string]string)
}
