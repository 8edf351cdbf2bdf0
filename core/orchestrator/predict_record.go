package orchestrator

import (
	"strings"

	"github.com/EchoCog/echollama/core/predictive"
)

// recordPrediction closes the loop on §4.E's outcome bookkeeping: the top
// prediction (if any) "hits" when the final reply actually engages its
// topic token, keyed by the request id so RecordOutcome's LRU stays
// request-scoped rather than accumulating on the shared history slice.
func (o *Orchestrator) recordPrediction(requestID string, predictions []predictive.Prediction, finalText string) {
	if len(predictions) == 0 {
		return
	}
	top := predictions[0]
	hit := strings.Contains(strings.ToLower(finalText), strings.ToLower(top.Kind))
	o.predictive.RecordOutcome(requestID, top.Kind, hit)
}
