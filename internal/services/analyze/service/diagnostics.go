package service

import (
	"net/http"

	"danmood/internal/services/analyze/domain"
	fetchdom "danmood/internal/services/fetch/domain"
)

// Summarize folds per-part segment diagnostics into run totals. A fallback
// part counts as one failed segment
func Summarize(parts []fetchdom.PartDiag) domain.Diagnostics {
	d := domain.Diagnostics{StatusCounts: map[int]int{}, PerPart: make([]domain.PartSummary, 0, len(parts))}
	for _, p := range parts {
		ps := domain.PartSummary{Part: p.Part, CID: p.CID, Total: max(p.Total, len(p.Diag)), Fallback: p.Fallback}
		for _, sd := range p.Diag {
			if sd.OK {
				ps.OK++
			}
			d.StatusCounts[sd.Status]++
		}
		d.OKSegments += ps.OK
		d.TotalSegments += ps.Total
		d.PerPart = append(d.PerPart, ps)
	}
	d.Throttled = d.StatusCounts[http.StatusPreconditionFailed] > 0
	return d
}
