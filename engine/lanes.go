package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/prompt"
)

const (
	lanePastDisputes = "past_disputes"
	laneMerchantRisk = "merchant_risk"
	laneNetworkRules = "network_rules"
)

// forkLanes runs the three analysis lanes concurrently and waits for all of
// them. A lane failure or panic never crosses lane boundaries: each lane
// contributes exactly one result, failed lanes with confidence zero.
func (r *pipelineRun) forkLanes(ctx context.Context) []core.LaneResult {
	r.log.Info("Starting parallel analysis lanes", "lane_count", 3)

	lanes := []struct {
		name string
		run  func(context.Context) core.LaneResult
	}{
		{lanePastDisputes, r.lanePastDisputes},
		{laneMerchantRisk, r.laneMerchantRisk},
		{laneNetworkRules, r.laneNetworkRules},
	}

	results := make([]core.LaneResult, len(lanes))
	var wg sync.WaitGroup
	for i, lane := range lanes {
		i, lane := i, lane
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := r.e.now()
			defer func() {
				if rec := recover(); rec != nil {
					results[i] = r.failedLane(lane.name, start, fmt.Errorf("panic: %v", rec))
				}
				res := results[i]
				r.log.LogLane(lane.name, res.ProcessingTime, res.Status == core.LaneStatusCompleted, nil)
			}()
			results[i] = lane.run(ctx)
		}()
	}
	wg.Wait()
	return results
}

func (r *pipelineRun) failedLane(name string, start time.Time, err error) core.LaneResult {
	return core.LaneResult{
		Lane:           name,
		Status:         core.LaneStatusFailed,
		Data:           map[string]any{},
		ProcessingTime: r.e.now().Sub(start),
		ErrorMessage:   err.Error(),
	}
}

func (r *pipelineRun) lanePastDisputes(ctx context.Context) core.LaneResult {
	start := r.e.now()

	merchantDisputes, err := r.e.repo.DisputesByMerchant(ctx, r.req.MerchantName)
	if err != nil {
		return r.failedLane(lanePastDisputes, start, err)
	}
	customerDisputes, err := r.e.repo.DisputesByCustomer(ctx, r.req.CustomerID)
	if err != nil {
		return r.failedLane(lanePastDisputes, start, err)
	}

	payload := map[string]any{
		"merchant_disputes": merchantDisputes,
		"customer_disputes": customerDisputes,
		"merchant_name":     r.req.MerchantName,
		"dispute_category":  string(r.req.Category),
	}
	analysis := r.analyze(ctx, prompt.PastDisputes(r.req, payload))

	return core.LaneResult{
		Lane:   lanePastDisputes,
		Status: core.LaneStatusCompleted,
		Data: map[string]any{
			"past_disputes":    payload,
			"ai_analysis":      analysis,
			"patterns_found":   len(merchantDisputes) > 0,
			"customer_history": len(customerDisputes),
		},
		Confidence:     pastDisputesConfidence(len(merchantDisputes), len(customerDisputes)),
		ProcessingTime: r.e.now().Sub(start),
	}
}

func (r *pipelineRun) laneMerchantRisk(ctx context.Context) core.LaneResult {
	start := r.e.now()

	risk, err := r.e.repo.MerchantRisk(ctx, r.req.MerchantName)
	if err != nil {
		return r.failedLane(laneMerchantRisk, start, err)
	}

	payload := map[string]any{
		"merchant_risk":      risk,
		"merchant_name":      r.req.MerchantName,
		"transaction_amount": r.req.TransactionAmount,
	}
	analysis := r.analyze(ctx, prompt.MerchantRisk(r.req, payload))

	data := map[string]any{
		"merchant_risk": payload,
		"ai_analysis":   analysis,
		"high_risk":     risk != nil && risk.RiskScore > 7.0,
	}
	if risk != nil {
		data["risk_score"] = risk.RiskScore
	}

	return core.LaneResult{
		Lane:           laneMerchantRisk,
		Status:         core.LaneStatusCompleted,
		Data:           data,
		Confidence:     merchantRiskConfidence(risk),
		ProcessingTime: r.e.now().Sub(start),
	}
}

func (r *pipelineRun) laneNetworkRules(ctx context.Context) core.LaneResult {
	start := r.e.now()

	rules, err := r.e.repo.NetworkRules(ctx, string(r.req.Category))
	if err != nil {
		return r.failedLane(laneNetworkRules, start, err)
	}

	payload := map[string]any{
		"network_rules":      rules,
		"dispute_category":   string(r.req.Category),
		"transaction_amount": r.req.TransactionAmount,
	}
	analysis := r.analyze(ctx, prompt.NetworkRules(r.req, payload))

	var avgSuccessRate float64
	for _, rule := range rules {
		avgSuccessRate += rule.SuccessRate
	}
	if len(rules) > 0 {
		avgSuccessRate /= float64(len(rules))
	}

	return core.LaneResult{
		Lane:   laneNetworkRules,
		Status: core.LaneStatusCompleted,
		Data: map[string]any{
			"network_rules":    payload,
			"ai_analysis":      analysis,
			"applicable_rules": len(rules),
			"avg_success_rate": avgSuccessRate,
		},
		Confidence:     networkRulesConfidence(rules),
		ProcessingTime: r.e.now().Sub(start),
	}
}
