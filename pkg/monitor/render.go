package monitor

import (
	"fmt"

	"github.com/burndown-ai/burndown/pkg/models"
)

// render writes the plain-text status snapshot for one cycle. Color and
// box drawing belong to an outer presentation layer, not here.
func (m *Monitor) render(snap snapshot, recent []models.Alert) {
	if m.out == nil {
		return
	}

	pct := snap.Usage.UsedFraction() * 100
	fmt.Fprintf(m.out, "[%s] session %s\n", snap.Now.Format("15:04:05"), snap.Session.ID)
	fmt.Fprintf(m.out, "  tokens    %d / %d (%.1f%%), %d left\n",
		snap.Usage.TokensUsed, snap.Usage.TokenLimit, pct, snap.TokensLeft)
	fmt.Fprintf(m.out, "  cost      $%.4f", snap.Usage.TotalCost)
	if m.remoteCost > 0 {
		fmt.Fprintf(m.out, " (upstream: $%.2f)", m.remoteCost)
	}
	fmt.Fprintln(m.out)
	if snap.Session.Model != "" {
		fmt.Fprintf(m.out, "  model     %s\n", snap.Session.Model)
	}
	fmt.Fprintf(m.out, "  burn rate %.1f tokens/min\n", snap.Usage.BurnRate)
	fmt.Fprintf(m.out, "  predicted end  %s\n", snap.PredictedEnd.Format("2006-01-02 15:04"))
	fmt.Fprintf(m.out, "  monthly reset  %s\n", snap.ResetTime.Format("2006-01-02 15:04"))

	if snap.Usage.TokenLimit > 0 && snap.Usage.TokensUsed > snap.Usage.TokenLimit {
		fmt.Fprintf(m.out, "  !! tokens exceeded limit (%d > %d)\n",
			snap.Usage.TokensUsed, snap.Usage.TokenLimit)
	}
	if snap.DepletesFirst {
		fmt.Fprintln(m.out, "  !! tokens will run out before monthly reset")
	}

	for _, a := range recent {
		fmt.Fprintf(m.out, "  alert: %s (%s)\n", a.Message, a.TriggeredAt.Format("15:04"))
	}
	fmt.Fprintln(m.out)
}
