// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package swarm implements the coordination substrate multiple worker
// agents share while acting on the same graph: time-decayed signals
// (pheromones), task decomposition, and the worker protocol that ties them
// together.
package swarm

import (
	"math"
	"sync"
	"time"
)

// Never is the half-life sentinel for pheromone types that do not decay.
const Never time.Duration = -1

// workflowTypes are mutually exclusive per (agent, node): writing one
// removes any other workflow-state pheromone already held for that pair.
// Every other type is a flag and composes freely.
var workflowTypes = map[string]bool{
	"exploring": true,
	"claiming":  true,
	"modifying": true,
	"completed": true,
	"blocked":   true,
}

// IsWorkflowType reports whether t is one of the five mutually exclusive
// workflow-state types.
func IsWorkflowType(t string) bool { return workflowTypes[t] }

// DefaultHalfLives assigns a decay half-life to each built-in pheromone
// type. `warning` is the only type that never decays; `completed` still
// decays, slowly, over 24h, rather than staying a permanent record.
// `blocked` decays in five minutes; it plays no part in claimability,
// which looks only at `modifying` and `claiming` pheromones.
var DefaultHalfLives = map[string]time.Duration{
	"exploring":       2 * time.Minute,
	"claiming":        60 * time.Minute,
	"modifying":       10 * time.Minute,
	"completed":       24 * time.Hour,
	"warning":         Never,
	"blocked":         5 * time.Minute,
	"proposal":        60 * time.Minute,
	"needs_review":    30 * time.Minute,
	"session_context": 8 * time.Hour,
}

// epsilon is the non-negligible threshold Sense filters against.
const epsilon = 0.02

type agentNode struct {
	agent string
	node  string
}

type entry struct {
	intensity float64
	createdAt time.Time
}

// decayedIntensity computes stored intensity x 0.5^(elapsed/halfLife), or
// the stored intensity unchanged when halfLife is Never.
func decayedIntensity(intensity float64, createdAt, now time.Time, halfLife time.Duration) float64 {
	if halfLife == Never || halfLife <= 0 {
		return intensity
	}
	elapsed := now.Sub(createdAt)
	if elapsed <= 0 {
		return intensity
	}
	return intensity * math.Pow(0.5, float64(elapsed)/float64(halfLife))
}

// Store is an in-memory, mutex-protected pheromone store. Persistence
// location isn't mandated by the system's design: decay and exclusivity are
// pure per-call logic with no need for a durable backend, so this stays out
// of pkg/graphstore.
type Store struct {
	mu        sync.Mutex
	halfLives map[string]time.Duration
	entries   map[agentNode]map[string]entry
}

// New builds an empty store. halfLives overrides DefaultHalfLives for any
// type named; a type not present in either map never decays.
func New(halfLives map[string]time.Duration) *Store {
	merged := make(map[string]time.Duration, len(DefaultHalfLives)+len(halfLives))
	for k, v := range DefaultHalfLives {
		merged[k] = v
	}
	for k, v := range halfLives {
		merged[k] = v
	}
	return &Store{halfLives: merged, entries: make(map[agentNode]map[string]entry)}
}

func (s *Store) halfLife(pType string) time.Duration {
	if hl, ok := s.halfLives[pType]; ok {
		return hl
	}
	return Never
}

// Write deposits a pheromone for (agent, node, type) at the given
// intensity, timestamped now. If pType is a workflow type, any other
// workflow-state pheromone already held for (agent, node) is removed first.
func (s *Store) Write(agent, node, pType string, intensity float64, now time.Time) {
	key := agentNode{agent: agent, node: node}
	s.mu.Lock()
	defer s.mu.Unlock()

	byType := s.entries[key]
	if byType == nil {
		byType = make(map[string]entry)
		s.entries[key] = byType
	}
	if IsWorkflowType(pType) {
		for existing := range byType {
			if IsWorkflowType(existing) {
				delete(byType, existing)
			}
		}
	}
	byType[pType] = entry{intensity: intensity, createdAt: now}
}

// Sensed is one currently non-negligible pheromone reported by Sense.
type Sensed struct {
	Agent     string
	Node      string
	Type      string
	Intensity float64
}

// Sense returns every non-negligible pheromone on node, optionally filtered
// to the given types and excluding one agent's own deposits.
func (s *Store) Sense(node string, types []string, excludeAgent string, now time.Time) []Sensed {
	var typeFilter map[string]bool
	if len(types) > 0 {
		typeFilter = make(map[string]bool, len(types))
		for _, t := range types {
			typeFilter[t] = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Sensed
	for key, byType := range s.entries {
		if key.node != node || key.agent == excludeAgent {
			continue
		}
		for pType, e := range byType {
			if typeFilter != nil && !typeFilter[pType] {
				continue
			}
			intensity := decayedIntensity(e.intensity, e.createdAt, now, s.halfLife(pType))
			if intensity <= epsilon {
				continue
			}
			out = append(out, Sensed{Agent: key.agent, Node: key.node, Type: pType, Intensity: intensity})
		}
	}
	return out
}
