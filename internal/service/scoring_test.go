package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"party-game-bot/internal/oracle"
)

// Exactly six ASCII digits pass; anything longer, shorter or with
// non-digits is refused before touching storage.
func TestTeamIDPatternProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		valid := rapid.StringMatching(`[0-9]{6}`).Draw(t, "valid")
		if !teamIDPattern.MatchString(valid) {
			t.Fatalf("six digits %q must be accepted", valid)
		}
	})

	for _, bad := range []string{"", "12345", "1234567", "12345a", "12 456", " 123456", "123456 ", "12.456"} {
		assert.False(t, teamIDPattern.MatchString(bad), "input %q", bad)
	}
}

func TestEvaluationTextPrefersRawVerdict(t *testing.T) {
	withRaw := &oracle.Verdict{
		Approved:   true,
		Confidence: 90,
		Reasoning:  "clear reference",
		Raw:        `{"is_reference":true,"confidence":90}`,
	}
	assert.Equal(t, withRaw.Raw, evaluationText(withRaw))

	degraded := &oracle.Verdict{Reasoning: "verification timed out"}
	text := evaluationText(degraded)
	assert.Contains(t, text, "verification timed out")
	assert.Contains(t, text, "approved=false")
}
