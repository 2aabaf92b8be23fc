package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/modelaudit/modelmeter/internal/errors"
	"github.com/modelaudit/modelmeter/internal/monitoring"
	"github.com/modelaudit/modelmeter/internal/resilience"
)

// Request is the payload sent to the LLM collaborator when the rule-based
// lineage path cannot produce a treescore.
type Request struct {
	ConfigJSON         map[string]interface{} `json:"config_json"`
	ParentScores       map[string]float64     `json:"parent_scores_map,omitempty"`
	UploadedModelNames []string               `json:"uploaded_model_names,omitempty"`
}

// Response is the best-effort JSON the collaborator returns. Any field may be
// absent; only the treescore is consumed by the rating core.
type Response struct {
	ParentModelsFound []string           `json:"parent_models_found"`
	UploadedParents   []string           `json:"uploaded_parents"`
	ParentScoresUsed  map[string]float64 `json:"parent_scores_used"`
	Treescore         *float64           `json:"treescore"`
}

// Client talks to the LLM HTTP collaborator. Calls are rate-limited to the
// configured minimum interval and circuit-broken like any other upstream.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	limiter  *rate.Limiter
	pool     *resilience.ConnectionPool
	retry    resilience.RetryConfig
	metrics  *monitoring.Metrics
}

// NewClient creates an LLM client. An empty endpoint yields a client whose
// calls always report the collaborator as unavailable. metrics may be nil.
func NewClient(endpoint, apiKey string, minInterval, requestTimeout time.Duration, metrics *monitoring.Metrics) *Client {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	})
	pool := resilience.NewConnectionPool(10, 20, 30*time.Second, cb)

	if minInterval <= 0 {
		minInterval = time.Second
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = 2
	retry.InitialDelay = 150 * time.Millisecond
	retry.JitterEnabled = false

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  requestTimeout,
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		pool:     pool,
		retry:    retry,
		metrics:  metrics,
	}
}

// Available reports whether the collaborator is configured at all.
func (c *Client) Available() bool {
	return c != nil && c.endpoint != ""
}

// SuggestTreescore asks the collaborator to re-derive candidate parents and a
// treescore from the raw config. A failed HTTP round trip is retried once;
// the returned value is only trusted if the call succeeds, the JSON parses,
// and the value is in [0,1].
func (c *Client) SuggestTreescore(ctx context.Context, req Request) (float64, error) {
	if !c.Available() {
		return 0, apperrors.NewExternalServiceError("llm", fmt.Errorf("no endpoint configured"))
	}
	if c.metrics != nil {
		c.metrics.IncrementLLMCall()
	}

	score, err := c.suggestTreescore(ctx, req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncrementLLMFailure()
		}
		return 0, err
	}
	return score, nil
}

func (c *Client) suggestTreescore(ctx context.Context, req Request) (float64, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, apperrors.NewExternalServiceError("llm", fmt.Errorf("encoding request: %w", err))
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "ModelMeter/1.0",
	}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	// Each attempt waits out the limiter, so retries keep the minimum
	// interval between requests to the collaborator.
	var raw []byte
	attempt := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperrors.NewExternalServiceError("llm", err)
		}

		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		resp, err := c.pool.DoRequest(callCtx, http.MethodPost, c.endpoint, headers, body)
		if err != nil {
			return apperrors.NewExternalServiceError("llm", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errBody, _ := io.ReadAll(resp.Body)
			return apperrors.NewExternalServiceError("llm",
				fmt.Errorf("status %d, body: %s", resp.StatusCode, string(errBody)))
		}

		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return apperrors.NewExternalServiceError("llm", err)
		}
		return nil
	}
	if err := resilience.RetryWithConfig(ctx, c.retry, attempt); err != nil {
		return 0, err
	}

	parsed, err := ParseResponse(raw)
	if err != nil {
		return 0, apperrors.NewExternalServiceError("llm", err)
	}
	if parsed.Treescore == nil {
		return 0, apperrors.NewExternalServiceError("llm", fmt.Errorf("response has no treescore"))
	}
	score := *parsed.Treescore
	if score < 0 || score > 1 {
		return 0, apperrors.NewExternalServiceError("llm", fmt.Errorf("treescore %v out of range", score))
	}
	return score, nil
}

// ParseResponse decodes a collaborator response, tolerating a markdown code
// fence around the JSON and the treescore key aliases tree_score and score.
func ParseResponse(raw []byte) (*Response, error) {
	text := stripCodeFence(string(raw))

	var loose map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &loose); err != nil {
		return nil, fmt.Errorf("malformed response JSON: %w", err)
	}

	var resp Response
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("malformed response JSON: %w", err)
	}

	if resp.Treescore == nil {
		for _, alias := range []string{"tree_score", "score"} {
			if rawVal, ok := loose[alias]; ok {
				var v float64
				if err := json.Unmarshal(rawVal, &v); err == nil {
					resp.Treescore = &v
					break
				}
			}
		}
	}

	return &resp, nil
}

// stripCodeFence removes a surrounding markdown fence like ```json ... ```.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:] // drop the language tag line
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// PoolStats exposes connection pool statistics for the metrics endpoint.
func (c *Client) PoolStats() map[string]interface{} {
	return c.pool.GetStats()
}
