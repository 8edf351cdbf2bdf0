package orchestrator

import "context"

// ReconcileHitRate re-persists the predictive analyzer's current hit rate
// into orchestrator state even when no request has arrived recently, so the
// persisted PredictionHitRate never goes stale during an idle period
// (§4.E). The composition root schedules
// this on an interval via core/scheduler.
func (o *Orchestrator) ReconcileHitRate(_ context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.PredictionHitRate = o.predictive.HitRate()
	return o.state.save(o.persist)
}
