package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/atcpro/atcpro/internal/config"
	"github.com/atcpro/atcpro/pkg/models"
)

// FallbackAdvice is shown when no advice could be generated.
const FallbackAdvice = "取得できませんでした！ごめんなさい！"

const DefaultPersona = "grandmother"

// personaLabels maps request personas to how the advisor introduces itself.
var personaLabels = map[string]string{
	"grandmother":     "祖母",
	"grandfather":     "祖父",
	"mother":          "母",
	"father":          "父",
	"elder_sister":    "姉",
	"elder_brother":   "兄",
	"younger_sister":  "妹",
	"younger_brother": "弟",
}

// AdviceInput is what the advisor gets to talk about.
type AdviceInput struct {
	User      string
	Persona   string
	Histories []models.ContestHistoryEntry
	Problems  []models.FailedProblemRecommendations
}

// AdviceService asks a Gemini model for a short motivational message.
type AdviceService struct {
	enabled    bool
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	metrics    *Metrics
	logger     *logrus.Logger
}

func NewAdviceService(cfg config.AdviceConfig, metrics *Metrics, logger *logrus.Logger) *AdviceService {
	return &AdviceService{
		enabled:    cfg.Enabled,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *AdviceService) Enabled() bool {
	return s.enabled
}

// Advise returns the generated text. It returns "" without error when the
// service is disabled or the model produced nothing.
func (s *AdviceService) Advise(ctx context.Context, input AdviceInput) (string, error) {
	if !s.enabled {
		s.metrics.ObserveAdvice("disabled")
		return "", nil
	}

	text, err := s.generate(ctx, BuildAdvicePrompt(input))
	switch {
	case err != nil:
		s.metrics.ObserveAdvice("error")
		return "", err
	case text == "":
		s.metrics.ObserveAdvice("empty")
	default:
		s.metrics.ObserveAdvice("success")
	}
	return text, nil
}

// BuildAdvicePrompt renders the request text. Output format rules travel
// inside the prompt; nothing checks them on the way back.
func BuildAdvicePrompt(input AdviceInput) string {
	label, ok := personaLabels[input.Persona]
	if !ok {
		label = personaLabels[DefaultPersona]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "あなたはAtCoderに取り組む%sさんの%sです。", input.User, label)
	b.WriteString("以下の直近のコンテスト成績とおすすめ問題をもとに、")
	fmt.Fprintf(&b, "%sらしい口調で励ましと次に取り組むべきことを200文字程度で伝えてください。\n", label)
	b.WriteString("出力はプレーンテキストのみとし、Markdownや記号による装飾、見出し、箇条書きは使わないでください。\n\n")

	b.WriteString("## コンテスト成績\n")
	if len(input.Histories) == 0 {
		b.WriteString("(なし)\n")
	}
	for _, h := range input.Histories {
		fmt.Fprintf(&b, "- %s %s 順位:%s パフォーマンス:%s レート:%s 増減:%s\n",
			h.Date.Format("2006-01-02"), h.ContestID, h.Rank, h.Performance,
			formatOptionalInt(h.Rating), formatOptionalInt(h.Diff))
	}

	b.WriteString("\n## おすすめ問題\n")
	if len(input.Problems) == 0 {
		b.WriteString("(なし)\n")
	}
	for _, p := range input.Problems {
		names := make([]string, 0, len(p.Recommendations))
		for _, r := range p.Recommendations {
			names = append(names, fmt.Sprintf("%s(diff:%d)", r.ProblemID, r.Difficulty))
		}
		fmt.Fprintf(&b, "- %s で不正解 → %s\n", p.ProblemID, strings.Join(names, ", "))
	}

	return b.String()
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func (s *AdviceService) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(decoded.Candidates) == 0 {
		s.logger.WithField("model", s.model).Warn("Advice model returned no candidates")
		return "", nil
	}
	var text strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return stripMarkup(text.String()), nil
}

var (
	emphasisPattern = regexp.MustCompile(`\*\*|__|` + "```")
	headingPattern  = regexp.MustCompile(`(?m)^#+\s*`)
)

// stripMarkup removes the markdown the model sometimes adds anyway.
func stripMarkup(s string) string {
	s = emphasisPattern.ReplaceAllString(s, "")
	s = headingPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Gemini API types

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}
