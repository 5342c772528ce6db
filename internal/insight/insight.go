// Package insight generates short AI-written business advice from weekly
// order statistics. The model call sits behind the Generator interface so
// handlers and tests never talk to the hosted API directly.
package insight

import "context"

// Stats summarizes one week of orders for a location.
type Stats struct {
	TotalOrders int            `json:"totalOrders"`
	Revenue     string         `json:"revenue"`
	ByStatus    map[string]int `json:"byStatus"`
}

// Insights is the advice returned to the dashboard.
type Insights struct {
	Summary string   `json:"summary"`
	Tips    []string `json:"tips"`
}

// Generator produces insights from order statistics.
type Generator interface {
	GenerateBusinessInsights(ctx context.Context, stats Stats) (Insights, error)
}

// Fallback is served when the model is unreachable or returns garbage, so
// the dashboard widget always renders something.
func Fallback() Insights {
	return Insights{
		Summary: "Unable to generate insights at this time.",
		Tips: []string{
			"Check your internet connection.",
			"Ensure API Key is valid.",
			"Try again later.",
		},
	}
}
