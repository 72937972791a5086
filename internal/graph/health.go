package graph

import "math"

// HealthBreakdown shows the sub-scores of the health formula
type HealthBreakdown struct {
	Coverage   float64 `json:"coverage"`
	Components float64 `json:"components"`
	Fragility  float64 `json:"fragility"`
}

// AnalysisReport is the full analysis result
type AnalysisReport struct {
	HealthScore     float64         `json:"health_score"`
	HealthBreakdown HealthBreakdown `json:"health_breakdown"`
	Topology        *TopologyReport `json:"topology"`
	Bridges         *BridgeReport   `json:"bridges"`
}

// AnalyzerConfig holds analysis parameters
type AnalyzerConfig struct {
	HubThreshold int
	TopN         int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		HubThreshold: 10,
		TopN:         50,
	}
}

// Analyze runs all analyses and computes a composite health score. Coverage
// penalizes artists without tags, components penalizes a split graph and
// fragility penalizes articulation points.
func Analyze(g *Graph, config *AnalyzerConfig) *AnalysisReport {
	topology := ComputeTopology(g, config.HubThreshold, config.TopN)
	bridges := ComputeBridges(g)

	total := float64(topology.TotalNodes)

	var coverage, components, fragility float64
	if artists := float64(topology.ArtistCount); artists > 0 {
		coverage = clamp(1.0-math.Min(float64(topology.OrphanCount)/artists, 0.2)*5.0, 0, 1)
	}
	if topology.NumComponents > 0 {
		components = clamp(1.0/float64(topology.NumComponents), 0, 1)
	}
	if total > 0 {
		fragility = clamp(1.0-math.Min(float64(bridges.APCount)/total, 0.05)*20.0, 0, 1)
	}

	healthScore := 0.40*coverage + 0.35*components + 0.25*fragility

	return &AnalysisReport{
		HealthScore: healthScore,
		HealthBreakdown: HealthBreakdown{
			Coverage:   coverage,
			Components: components,
			Fragility:  fragility,
		},
		Topology: topology,
		Bridges:  bridges,
	}
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
