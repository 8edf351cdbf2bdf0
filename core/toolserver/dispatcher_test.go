package toolserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoCog/echollama/core/fractalmemory"
	"github.com/EchoCog/echollama/core/llm"
	"github.com/EchoCog/echollama/core/logging"
	"github.com/EchoCog/echollama/core/orchestrator"
	"github.com/EchoCog/echollama/core/persistence"
	"github.com/EchoCog/echollama/core/phi"
	"github.com/EchoCog/echollama/core/predictive"
	"github.com/EchoCog/echollama/core/principal"
)

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	store, err := persistence.Open(t.TempDir())
	require.NoError(t, err)

	mem := fractalmemory.New(store)
	phiState := phi.NewState()
	analyzer := predictive.New(32)
	selector := llm.New(llm.FallbackProvider{})
	pr := principal.New("anonymous")
	logger := logging.New(&discard{}, logging.Error, logging.FormatText)

	orch := orchestrator.New(
		orchestrator.Config{PhiAlpha: 0.05, PrincipalThreshold: 0.8, LLMTimeout: 2 * time.Second},
		logger, store, mem, &phiState, analyzer, selector, pr,
	)

	return New(Config{PhiAlpha: 0.05}, orch, mem, &phiState, pr, store, logger)
}

func TestCall_UnknownToolReturnsProtocolError(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Call(context.Background(), "not_a_real_tool", nil)
	require.Error(t, err)
}

func TestCall_OrchestratedInteractionFramesResponse(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "orchestrated_interaction", map[string]interface{}{
		"user_input": "what's a good way to refactor this for performance?",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "orchestrated_interaction")
	assert.Contains(t, body, "mode:")
	assert.Contains(t, body, "state:")
}

func TestCall_PhiUpdateThenQueryAgree(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Call(context.Background(), "phi_update", map[string]interface{}{
		"emotional_depth":      0.8,
		"cognitive_complexity": 0.6,
		"self_awareness":       0.5,
	})
	require.NoError(t, err)

	first, err := d.Call(context.Background(), "phi_query", nil)
	require.NoError(t, err)
	second, err := d.Call(context.Background(), "phi_query", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCall_MetamorphosisReadinessReportsProgress(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "metamorphosis_readiness", nil)
	require.NoError(t, err)
	assert.Contains(t, body, "ready:")
	assert.Contains(t, body, "progress:")
}

func TestCall_PhiDomainInsightsFallsBackToGeneral(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "phi_domain_insights", map[string]interface{}{"domain": "not_a_domain"})
	require.NoError(t, err)
	assert.Contains(t, body, domainInsights["general"])
}

func TestCall_MemoryStoreThenRetrieve(t *testing.T) {
	d := newTestDispatcher(t)
	storeBody, err := d.Call(context.Background(), "memory_store", map[string]interface{}{
		"kind":    "root",
		"content": "a foundational memory about phi convergence",
	})
	require.NoError(t, err)
	assert.Contains(t, storeBody, "id:")

	retrieveBody, err := d.Call(context.Background(), "memory_retrieve", map[string]interface{}{
		"query": "phi convergence",
	})
	require.NoError(t, err)
	assert.Contains(t, retrieveBody, "count: 1")
}

func TestCall_MemoryStoreRejectsUnknownKind(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "memory_store", map[string]interface{}{
		"kind":    "twig",
		"content": "x",
	})
	require.NoError(t, err)
	assert.Contains(t, body, errorSigil)
}

func TestCall_MemoryPatternSearch(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "memory_pattern_search", map[string]interface{}{"text": "fractal fractal pattern pattern"})
	require.NoError(t, err)
	assert.Contains(t, body, "count:")
}

func TestCall_EmotionAnalyzeListsAllEightEmotions(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "emotion_analyze", map[string]interface{}{"text": "I'm so curious and happy about this"})
	require.NoError(t, err)
	for _, e := range []string{"joy", "curiosity", "satisfaction", "wonder", "confidence", "frustration", "calm", "concern"} {
		assert.Contains(t, body, e+":")
	}
}

func TestCall_EmotionAnalyzeRequiresText(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "emotion_analyze", map[string]interface{}{})
	require.NoError(t, err)
	assert.Contains(t, body, errorSigil)
}

func TestCall_SemanticValidate(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "semantic_validate", map[string]interface{}{"text": "the system converges smoothly"})
	require.NoError(t, err)
	assert.Contains(t, body, "coherence:")
}

func TestCall_ConversationDepth(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "conversation_depth", map[string]interface{}{"text": "a layered reflective thought about memory and growth"})
	require.NoError(t, err)
	assert.Contains(t, body, "surface:")
	assert.Contains(t, body, "deep:")
	assert.Contains(t, body, "latent:")
}

func TestCall_CoevolutionTrackAccumulatesHistory(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Call(context.Background(), "coevolution_track", map[string]interface{}{
		"user_contribution":   "I think we should explore this idea further",
		"system_contribution": "Let's explore this idea together and see where it leads",
	})
	require.NoError(t, err)

	body, err := d.Call(context.Background(), "coevolution_track", map[string]interface{}{
		"user_contribution":   "another turn",
		"system_contribution": "another reply",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "recorded_entries: 2")
}

func TestCall_InsightEmergeWithEmptyMemory(t *testing.T) {
	d := newTestDispatcher(t)
	body, err := d.Call(context.Background(), "insight_emerge", nil)
	require.NoError(t, err)
	assert.Contains(t, body, "sampled: 0")
}

func TestCall_InsightEmergeSamplesStoredNodes(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Call(context.Background(), "memory_store", map[string]interface{}{
		"kind":    "root",
		"content": "the first seed of an idea",
	})
	require.NoError(t, err)

	body, err := d.Call(context.Background(), "insight_emerge", map[string]interface{}{"n": 1})
	require.NoError(t, err)
	assert.Contains(t, body, "sampled: 1")
}

func TestToolNamesMatchCatalogueSize(t *testing.T) {
	assert.Len(t, ToolNames(), 13)
}

func TestToolDescriptionUnknownToolReportsFalse(t *testing.T) {
	_, ok := ToolDescription("does_not_exist")
	assert.False(t, ok)
}
