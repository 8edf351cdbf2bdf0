package orchestrator

// finalize applies the bookkeeping every pipeline exit shares regardless of
// which terminal state it reached (§4.G step 9 "Return").
func (o *Orchestrator) finalize(resp Response) {
	o.logger.Info("request finalized", map[string]interface{}{
		"mode":  string(resp.Mode),
		"state": string(resp.State),
	})
}
