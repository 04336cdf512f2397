package scoring

import (
	"testing"
	"time"

	"github.com/astraidlabs/veriado-searchcore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig_CopiesFieldWeightsDefensively(t *testing.T) {
	cfg := config.NewConfig()
	plan := FromConfig(cfg.Scoring)
	plan.FieldWeights["title"] = 99

	assert.Equal(t, 4.0, cfg.Scoring.FieldWeights["title"])
}

func TestClone_DeepCopiesFieldWeights(t *testing.T) {
	cfg := config.NewConfig()
	plan := FromConfig(cfg.Scoring)
	clone := plan.Clone()
	clone.FieldWeights["title"] = 1

	assert.Equal(t, 4.0, plan.FieldWeights["title"])
	assert.Equal(t, 1.0, clone.FieldWeights["title"])
}

func TestBoost_MultipliesKnownFieldWeight(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	err := plan.Boost("title", 2.0)
	require.NoError(t, err)
	assert.Equal(t, 8.0, plan.FieldWeights["title"])
}

func TestBoost_IgnoresUnknownFieldSilently(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	err := plan.Boost("not_a_field", 2.0)
	require.NoError(t, err)
	assert.Len(t, plan.FieldWeights, 5)
}

func TestBoost_RejectsNonPositiveFactor(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	err := plan.Boost("title", 0)
	assert.Error(t, err)
}

func TestUseTFIDFRanking_EnablesAlternativeAndHigherIsBetter(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	plan.UseTFIDFRanking(0.25)

	assert.True(t, plan.UseTFIDFAlternative)
	assert.True(t, plan.HigherIsBetter)
	assert.Equal(t, 0.25, plan.TFIDFDamping)
}

func TestUseTFIDFRanking_CoercesNegativeDampingToDefault(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	plan.UseTFIDFRanking(-1)
	assert.Equal(t, 0.5, plan.TFIDFDamping)
}

func TestUseRankExpression_AcceptsSafeFragment(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	err := plan.UseRankExpression("bm25_score * 1.5", true)
	require.NoError(t, err)
	assert.Equal(t, "bm25_score * 1.5", plan.CustomRankExpr)
	assert.True(t, plan.HigherIsBetter)
}

func TestUseRankExpression_RejectsStatementSeparator(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	err := plan.UseRankExpression("bm25_score; DROP TABLE x", true)
	assert.Error(t, err)
	assert.Empty(t, plan.CustomRankExpr)
}

func TestUseRankExpression_RejectsCommentSequence(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	err := plan.UseRankExpression("bm25_score -- comment", true)
	assert.Error(t, err)
}

func TestUseCustomSimilaritySQL_RejectsDisallowedCharacter(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	err := plan.UseCustomSimilaritySQL("bm25_score || 'x'")
	assert.Error(t, err)
}

func TestUseCustomSimilarity_StoresFunction(t *testing.T) {
	plan := FromConfig(config.NewConfig().Scoring)
	called := false
	plan.UseCustomSimilarity(func(bm25 float64, customSim *float64, modifiedUTC *time.Time) float64 {
		called = true
		return bm25
	})
	require.NotNil(t, plan.CustomSimilarityFn)
	plan.CustomSimilarityFn(1.0, nil, nil)
	assert.True(t, called)
}
