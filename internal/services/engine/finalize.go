package engine

import (
	"math/rand/v2"
	"strings"

	"campaign-filter-engine/internal/models"
)

// DefaultRoutingSeed keeps the AI-routing sample reproducible between runs.
const DefaultRoutingSeed uint64 = 42

// DefaultLabelPart replaces an empty agreement or team in campaign labels.
const DefaultLabelPart = "geral"

// AIRoutingSuffix replaces the team in the labels of rows routed to the AI agent.
const AIRoutingSuffix = "convai"

// Label identifies a campaign in the Campanha column.
type Label struct {
	Agreement    string
	CampaignType models.CampaignType
	Team         string
}

func (l Label) render(date, suffix string) string {
	agreement := strings.TrimSpace(l.Agreement)
	if agreement == "" {
		agreement = DefaultLabelPart
	}
	return agreement + "_" + date + "_" + l.CampaignType.LabelSlug() + "_" + suffix
}

// Finalize projects a frame onto the published schema. It accepts either
// internal or published column names, so running it on its own output gives
// the same frame back.
func (e *Engine) Finalize(in models.Frame, label Label, aiRoutingPercent int) models.Frame {
	sources := make([]int, len(models.PublishedSchema))
	for i, col := range models.PublishedSchema {
		sources[i] = in.Index(col.Internal)
		if sources[i] < 0 {
			sources[i] = in.Index(col.Published)
		}
	}

	docIdx := in.Index(models.ColDocument)
	seen := make(map[string]bool, in.Len())
	rows := make([][]string, 0, in.Len())

	for _, src := range in.Rows {
		if docIdx >= 0 && docIdx < len(src) {
			doc := src[docIdx]
			if seen[doc] {
				continue
			}
			seen[doc] = true
		}

		row := make([]string, len(sources))
		for i, idx := range sources {
			if idx >= 0 && idx < len(src) {
				row[i] = src[idx]
			}
		}
		rows = append(rows, row)
	}

	team := strings.TrimSpace(label.Team)
	if team == "" {
		team = DefaultLabelPart
	}
	date := e.now().Format("02012006")
	teamLabel := label.render(date, team)
	routedLabel := label.render(date, AIRoutingSuffix)

	campaignIdx := len(sources) - 1
	for _, row := range rows {
		row[campaignIdx] = teamLabel
	}
	for _, i := range e.routedRows(len(rows), aiRoutingPercent) {
		rows[i][campaignIdx] = routedLabel
	}

	return models.Frame{Columns: models.PublishedHeaders(), Rows: rows}
}

// routedRows picks floor(percent/100 * n) row positions with a fixed seed.
func (e *Engine) routedRows(n, percent int) []int {
	if percent <= 0 || n == 0 {
		return nil
	}
	if percent > 100 {
		percent = 100
	}
	k := percent * n / 100
	rng := rand.New(rand.NewPCG(e.seed, e.seed))
	return rng.Perm(n)[:k]
}
