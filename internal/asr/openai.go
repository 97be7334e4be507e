package asr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"github.com/narrationlab/bookalign/internal/errs"
)

// OpenAIConfig configures OpenAIAsr. BaseURL lets the adapter point at any
// Whisper-compatible endpoint (spec.md §6 ASR_SERVICE_URL env var).
type OpenAIConfig struct {
	APIKey      string
	Model       string // default "whisper-1"
	BaseURL     string
	Timeout     time.Duration
	RateLimit   float64// requests per second
	MaxRetries  int
	RetryDelay  time.Duration
	HTTPClient  *http.Client
}

const defaultOpenAIAsrModel = "whisper-1"

// OpenAIAsr implements Asr against an OpenAI-compatible transcription API
// (spec.md §4.12). It rate-limits outbound requests and retries transient
// IOErrors once with backoff, per spec.md §7.
type OpenAIAsr struct {
	client     openai.Client
	model      string
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIAsr builds an OpenAIAsr adapter from cfg, applying the same
// default-filling conventions the teacher's OpenAI TTS client uses.
func NewOpenAIAsr(cfg OpenAIConfig) *OpenAIAsr {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIAsrModel
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 4.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Minute
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIAsr{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

func (a *OpenAIAsr) ModelVersion() string { return a.model }

// Transcribe requests a verbose, word-timestamped transcription and maps it
// onto AsrResponse. Network-transient failures are retried once with
// exponential backoff (spec.md §7 IOError policy); all other failures
// surface as errs.ToolExitNonZero/ToolUnavailable without local retry.
func (a *OpenAIAsr) Transcribe(ctx context.Context, audioPath string, opts Options) (Response, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return Response{}, errs.New(errs.Cancelled, "", "asr", "rate limiter wait cancelled", err)
	}

	var resp Response
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			r, callErr := a.transcribeOnce(ctx, audioPath, opts)
			if callErr != nil {
				if !isTransientOpenAIError(callErr) {
					return retry.Unrecoverable(callErr)
				}
				return callErr
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(a.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return Response{}, classifyOpenAIError(err)
	}
	return resp, nil
}

func (a *OpenAIAsr) transcribeOnce(ctx context.Context, audioPath string, opts Options) (Response, error) {
	file, err := openAudioFile(audioPath)
	if err != nil {
		return Response{}, err
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(a.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}
	if opts.Language != "" {
		params.Language = openai.String(opts.Language)
	}

	verbose, err := a.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return Response{}, err
	}

	return mapVerboseTranscription(verbose, a.model)
}

func isTransientOpenAIError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return errs.New(errs.IOError, "", "asr", fmt.Sprintf("openai transcription transient failure (status %d)", apiErr.StatusCode), err)
		}
		return errs.New(errs.ToolExitNonZero, "", "asr", fmt.Sprintf("openai transcription failed (status %d)", apiErr.StatusCode), err)
	}
	return errs.New(errs.ToolUnavailable, "", "asr", "openai transcription service unreachable", err)
}

var _ Asr = (*OpenAIAsr)(nil)
