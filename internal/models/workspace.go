package models

import (
	"time"
)

// WorkspacePlan represents the billing tier of a workspace
type WorkspacePlan string

const (
	PlanStarter WorkspacePlan = "starter"
	PlanPro     WorkspacePlan = "pro"
	PlanStudio  WorkspacePlan = "studio"
)

// Workspace represents a tenant. Plan controls render priority and the
// monthly episode quota.
type Workspace struct {
	ID                string        `json:"id" yaml:"id"` // ws_{uuid}
	Name              string        `json:"name" yaml:"name"`
	Plan              WorkspacePlan `json:"plan" yaml:"plan"`
	EpisodesPerMonth  int           `json:"episodes_per_month" yaml:"episodes_per_month"`   // Monthly quota from plan
	EpisodesThisMonth int           `json:"episodes_this_month" yaml:"episodes_this_month"` // Counter, reset externally each billing cycle
	Owners            []string      `json:"owners" yaml:"owners"`                           // Notification targets
	CreatedAt         time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" yaml:"updated_at"`
}

// RenderPriority returns the workspace's render tier value.
// Higher tiers get numerically higher priority; the queue inverts
// this so tier order is preserved under ascending key iteration.
func (w *Workspace) RenderPriority() int {
	switch w.Plan {
	case PlanStudio:
		return 3
	case PlanPro:
		return 2
	default:
		return 1
	}
}

// QuotaExhausted reports whether the workspace has used its monthly quota
func (w *Workspace) QuotaExhausted() bool {
	return w.EpisodesPerMonth > 0 && w.EpisodesThisMonth >= w.EpisodesPerMonth
}
