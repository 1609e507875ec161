// Package oracle wraps the external vision-model verification service.
// The rest of the bot only sees Verdicts; transport failures, rate
// limits and malformed responses all degrade into rejected verdicts
// with a diagnostic reasoning string, never into fatal errors.
package oracle

import "context"

// Verdict is the structured outcome of one verification call.
type Verdict struct {
	Approved   bool
	Confidence int
	Reasoning  string
	// Raw carries the model's full JSON response for the audit column;
	// empty when the oracle was skipped or failed before responding.
	Raw string
}

// Verifier is the consumed interface for image-claim verification.
type Verifier interface {
	// VerifyFilmReference checks whether the photo shows a recognizable
	// reference to the claimed film. easterEggHint optionally describes
	// the specific prop to look for.
	VerifyFilmReference(ctx context.Context, image []byte, filmTitle, easterEggHint string) *Verdict

	// VerifyPuzzlePoster checks whether the screenshot shows a fully
	// solved puzzle depicting the film's poster. posterURLs optionally
	// point at reference posters.
	VerifyPuzzlePoster(ctx context.Context, image []byte, filmTitle string, posterURLs []string) *Verdict
}
