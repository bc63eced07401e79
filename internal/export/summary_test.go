package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSummary(t *testing.T) {
	original := englishBulk(t)
	_, _, res := optimize(t, original, "bulk.xlsx", profile(0.10, 0.05, 25))
	res.RunID = "run-1"
	res.SourceFile = "bulk.xlsx"

	out, err := RenderSummary(res)
	require.NoError(t, err)

	assert.Contains(t, out, "PPC optimization summary for Test Client")
	assert.Contains(t, out, "Source: bulk.xlsx (run run-1)")
	assert.Contains(t, out, "target ACOS 10.0%")
	assert.Contains(t, out, "min clicks 25")
	assert.Contains(t, out, "1 good, 0 bad (0 with insufficient data), 1 pause candidates")
	assert.Contains(t, out, "shoes [Brand]: 1.00 -> 1.30 (+30.0%)")
	assert.Contains(t, out, "socks [Brand]: 30 clicks, 5.00 spend")
	assert.Contains(t, out, "Brand / top_of_search: ACOS 5.0%, 10.0% -> 120.0%")
	assert.Contains(t, out, "Paused spend: 5.00")
	assert.NotContains(t, out, "Skipped rows")
}

func TestRenderSummary_LimitsChangesAndShowsUndefined(t *testing.T) {
	original := englishBulk(t)
	_, _, res := optimize(t, original, "bulk.xlsx", profile(0.10, 0.05, 25))
	res.Profile.Name = ""
	res.ClientID = ""

	out, err := NewSummaryRenderer().Render(res, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "PPC optimization summary\n")
	assert.NotContains(t, out, "(run ")

	res.Summary.Impact.ProjectedACOS.Defined = false
	out, err = NewSummaryRenderer().Render(res, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "-> n/a")
}
