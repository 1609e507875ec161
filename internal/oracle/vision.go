package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"party-game-bot/internal/config"
)

// VisionClient talks to an OpenAI-compatible chat-completions endpoint
// with image input. A client with no API key is "unconfigured" and
// resolves every call through the configured fallback mode.
type VisionClient struct {
	cfg        config.OracleConfig
	httpClient *http.Client
}

// NewVisionClient creates a VisionClient from configuration. The
// request timeout is enforced per call via context, so the underlying
// http.Client carries no timeout of its own.
func NewVisionClient(cfg config.OracleConfig) *VisionClient {
	if cfg.APIKey == "" {
		log.Warn().Str("fallback", cfg.Fallback).Msg("Oracle API key not set - verification disabled")
	}
	return &VisionClient{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// Configured reports whether the client can reach a real oracle.
func (c *VisionClient) Configured() bool {
	return c.cfg.APIKey != ""
}

func (c *VisionClient) fallbackVerdict() *Verdict {
	if c.cfg.Fallback == config.FallbackStrict {
		return &Verdict{
			Approved:   false,
			Confidence: 0,
			Reasoning:  "Verification unavailable and strict mode is on - claim rejected",
		}
	}
	return &Verdict{
		Approved:   true,
		Confidence: 100,
		Reasoning:  "Verification skipped (oracle not configured)",
	}
}

func rejectedVerdict(reason string) *Verdict {
	return &Verdict{Approved: false, Confidence: 0, Reasoning: reason}
}

// VerifyFilmReference implements Verifier.
func (c *VisionClient) VerifyFilmReference(ctx context.Context, image []byte, filmTitle, easterEggHint string) *Verdict {
	if !c.Configured() {
		return c.fallbackVerdict()
	}
	return c.evaluate(ctx, image, filmReferencePrompt(filmTitle, easterEggHint), "is_reference")
}

// VerifyPuzzlePoster implements Verifier.
func (c *VisionClient) VerifyPuzzlePoster(ctx context.Context, image []byte, filmTitle string, posterURLs []string) *Verdict {
	if !c.Configured() {
		return c.fallbackVerdict()
	}
	return c.evaluate(ctx, image, puzzlePosterPrompt(filmTitle, posterURLs), "is_valid")
}

// chat-completions request/response shapes, limited to what we use.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// modelVerdict is the JSON object the prompt instructs the model to
// return. Film prompts use is_reference, puzzle prompts is_valid.
type modelVerdict struct {
	IsReference *bool  `json:"is_reference"`
	IsValid     *bool  `json:"is_valid"`
	Confidence  int    `json:"confidence"`
	Reasoning   string `json:"reasoning"`
}

func (c *VisionClient) evaluate(ctx context.Context, image []byte, prompt, approvalField string) *Verdict {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		MaxTokens: 500,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build oracle request")
		return rejectedVerdict("Internal error while preparing verification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("Failed to build oracle request")
		return rejectedVerdict("Internal error while preparing verification")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Error().Err(err).Dur("timeout", c.cfg.Timeout).Msg("Oracle request timed out")
			return rejectedVerdict("Verification timed out - please try again later")
		}
		log.Error().Err(err).Msg("Oracle request failed")
		return rejectedVerdict("Verification service unreachable - please try again later")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read oracle response")
		return rejectedVerdict("Verification service returned an unreadable response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		log.Error().Msg("Oracle rate limit reached")
		return rejectedVerdict("Too many verification requests - please try again later")
	}
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Str("body", string(raw)).Msg("Oracle returned error status")
		return rejectedVerdict("Verification service temporarily unavailable")
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil || len(cr.Choices) == 0 {
		log.Error().Err(err).Str("body", string(raw)).Msg("Malformed oracle response envelope")
		return rejectedVerdict("Verification failed (malformed response)")
	}

	content := stripCodeFences(cr.Choices[0].Message.Content)

	var mv modelVerdict
	if err := json.Unmarshal([]byte(content), &mv); err != nil {
		log.Error().Err(err).Str("content", content).Msg("Failed to parse oracle verdict JSON")
		return rejectedVerdict("Verification failed (unparseable verdict)")
	}

	positive := false
	switch approvalField {
	case "is_valid":
		positive = mv.IsValid != nil && *mv.IsValid
	default:
		positive = mv.IsReference != nil && *mv.IsReference
	}

	approved := positive && mv.Confidence >= c.cfg.ConfidenceThreshold
	reasoning := mv.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}

	log.Info().
		Bool("positive", positive).
		Int("confidence", mv.Confidence).
		Int("threshold", c.cfg.ConfidenceThreshold).
		Bool("approved", approved).
		Msg("Oracle verdict")

	return &Verdict{
		Approved:   approved,
		Confidence: mv.Confidence,
		Reasoning:  reasoning,
		Raw:        content,
	}
}

// stripCodeFences unwraps the model's habit of fencing JSON in
// ```json ... ``` blocks.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func filmReferencePrompt(filmTitle, easterEggHint string) string {
	hint := ""
	if easterEggHint != "" {
		hint = fmt.Sprintf("\n\nIMPORTANT: this film has a specific easter egg to look for:\n%s\n", easterEggHint)
	}
	return fmt.Sprintf(`You are an expert on sci-fi films analyzing a photo from a costume party.

The submitter claims this photo shows a reference to the film %q.
%s
Check the photo for:
1. Easter eggs - specific props or symbols from the film
2. Reenacted scenes - people recreating an iconic scene
3. A film scene playing on a screen in the photo
4. An official or recreated film poster
5. Costumes of film characters
6. Iconic props from the film

IMPORTANT: the reference must be recognizable and unambiguous for %q.
Vague similarities do not count.

Answer ONLY with a JSON object in this exact shape (no extra text):
{
  "is_reference": true or false,
  "confidence": 0-100,
  "reasoning": "what you see and why it is or is not a reference",
  "detected_elements": ["element 1", "element 2"]
}`, filmTitle, hint, filmTitle)
}

func puzzlePosterPrompt(filmTitle string, posterURLs []string) string {
	hint := ""
	if len(posterURLs) > 0 {
		n := len(posterURLs)
		if n > 2 {
			n = 2
		}
		hint = "\n\nReference posters:\n- " + strings.Join(posterURLs[:n], "\n- ")
	}
	return fmt.Sprintf(`You are analyzing a puzzle screenshot from a costume party.

The submitter claims to have solved a jigsaw puzzle showing the poster of %q.
%s
TASK: check whether the image shows a FULLY SOLVED puzzle depicting the
film poster of %q.

Checklist:
1. Is the puzzle completely solved (no missing pieces)?
2. Does it show a film poster (not a scene or screenshot)?
3. Is it unambiguously %q (title, logo, iconic characters)?

Answer ONLY with a JSON object:
{
  "is_valid": true or false,
  "confidence": 0-100,
  "reasoning": "what you see; is it a solved puzzle with the right poster?",
  "issues": ["problem 1", "problem 2"]
}`, filmTitle, hint, filmTitle, filmTitle)
}
