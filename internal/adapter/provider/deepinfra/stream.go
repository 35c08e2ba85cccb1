package deepinfra

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"github.com/heartmarshall/songsmith-backend/internal/adapter/provider/retry"
	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

const doneSentinel = "[DONE]"

// ErrStreamConsumed is yielded when a completion stream is ranged over twice.
var ErrStreamConsumed = errors.New("deepinfra: stream already consumed")

// CompleteStream starts a streaming chat completion and returns a lazy
// sequence of content deltas. Nothing is read until the caller ranges over
// the sequence; breaking out of the loop closes the response body. The
// sequence is single-use and must be ranged over exactly once to release
// the connection.
//
// Transport and HTTP status failures before the first byte are returned
// directly. Read failures mid-stream are yielded as the final element.
func (c *Client) CompleteStream(ctx context.Context, req domain.CompletionRequest) (iter.Seq2[string, error], error) {
	endpoint, err := c.resolveModel(ctx, req.Model)
	if err != nil {
		return nil, err
	}

	body, err := encodeRequest(req, endpoint, true)
	if err != nil {
		return nil, err
	}

	c.log.DebugContext(ctx, "deepinfra stream request", slog.String("model", endpoint))

	start := time.Now()
	resp, err := retry.Do(ctx, c.retry, c.log, func() (io.ReadCloser, error) {
		r, err := c.post(ctx, body)
		if err != nil {
			return nil, err
		}
		return r.Body, nil
	})
	c.metrics.ObserveUpstream(providerName, "stream", err, time.Since(start))
	if err != nil {
		c.log.ErrorContext(ctx, "deepinfra stream request failed", slog.String("error", err.Error()))
		return nil, err
	}

	return newStream(ctx, resp, c.log).all, nil
}

// stream turns an SSE response body into content deltas.
type stream struct {
	ctx  context.Context
	body io.ReadCloser
	log  *slog.Logger
	used atomic.Bool
}

func newStream(ctx context.Context, body io.ReadCloser, log *slog.Logger) *stream {
	return &stream{ctx: ctx, body: body, log: log}
}

func (s *stream) all(yield func(string, error) bool) {
	if !s.used.CompareAndSwap(false, true) {
		yield("", ErrStreamConsumed)
		return
	}
	defer s.body.Close()

	// ReadString keeps partial frames buffered across network reads.
	r := bufio.NewReader(s.body)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			content, done, frameErr := s.parseFrame(line)
			if frameErr != nil {
				yield("", frameErr)
				return
			}
			if done {
				return
			}
			if content != "" && !yield(content, nil) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				yield("", &domain.UpstreamError{Provider: providerName, Err: fmt.Errorf("read stream: %w", err)})
			}
			return
		}
	}
}

// parseFrame returns the content delta of one line and whether the line is
// the end-of-stream sentinel. Blank lines, comments, non-data fields and
// malformed payloads yield no content. A frame carrying an "error" object
// ends the stream with an *domain.UpstreamError.
func (s *stream) parseFrame(line string) (content string, done bool, err error) {
	line = strings.TrimSpace(line)
	payload, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return "", false, nil
	}
	payload = strings.TrimSpace(payload)
	if payload == doneSentinel {
		return "", true, nil
	}
	if !gjson.Valid(payload) {
		s.log.DebugContext(s.ctx, "deepinfra stream: skipping malformed frame", slog.Int("len", len(payload)))
		return "", false, nil
	}
	if e := gjson.Get(payload, "error"); e.Exists() && e.Type != gjson.Null {
		msg := e.Get("message").String()
		if msg == "" {
			msg = e.String()
		}
		return "", false, &domain.UpstreamError{Provider: providerName, Message: msg}
	}
	return gjson.Get(payload, "choices.0.delta.content").String(), false, nil
}
