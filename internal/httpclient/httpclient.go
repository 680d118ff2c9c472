// Package httpclient builds the retrying HTTP client used for every
// outbound call (identity provider and hosted store).
package httpclient

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// Options configures a client
type Options struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultOptions are general-purpose timeouts and retries
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
	}
}

// leveledZerolog adapts zerolog to retryablehttp.LeveledLogger
type leveledZerolog struct {
	log zerolog.Logger
}

var _ retryablehttp.LeveledLogger = leveledZerolog{}

// Error is logged as a warning since the request may still succeed on retry
func (l leveledZerolog) Error(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

func (l leveledZerolog) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

func (l leveledZerolog) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

// Debug carries the per-request lines, including retries
func (l leveledZerolog) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

// New returns a standard *http.Client that retries connection errors, 5xx
// responses (except 501) and 429 responses, honouring Retry-After.
func New(opts Options, log zerolog.Logger) *http.Client {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = defaults.RetryWaitMin
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = defaults.RetryWaitMax
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = retryablehttp.LeveledLogger(leveledZerolog{
		log: log.With().Str("component", "httpclient").Logger(),
	})
	// hand the final response back to the caller instead of a generic
	// "giving up" error so upstream status codes survive
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := retryClient.StandardClient()
	client.Timeout = opts.Timeout
	return client
}
