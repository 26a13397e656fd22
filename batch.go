package webshot

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// CaptureMany captures every URL concurrently with the same options.
//
// One goroutine runs per URL; the pool is the only throttle. A failing URL
// never cancels the others: its item carries the error and the rest
// proceed. Items follow input order. The returned error is non-nil only
// when the batch itself is rejected (size or options).
func (s *Service) CaptureMany(ctx context.Context, urls []string, opts CaptureOptions) (*BatchOutcome, error) {
	if len(urls) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(urls) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d URLs (max %d)", ErrBatchTooLarge, len(urls), MaxBatchSize)
	}
	if err := opts.Validate(s.cfg.devices); err != nil {
		return nil, err
	}

	start := s.cfg.now()
	items := make([]BatchItem, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			items[i] = s.captureItem(ctx, CaptureRequest{URL: u, CaptureOptions: opts})
			return nil
		})
	}
	_ = g.Wait() // goroutines never fail

	return summarize(items, s.cfg.now().Sub(start)), nil
}

// captureItem runs one batch entry, folding any error into the item.
func (s *Service) captureItem(ctx context.Context, req CaptureRequest) BatchItem {
	start := s.cfg.now()

	res, err := s.Capture(ctx, req)
	if err != nil {
		return BatchItem{
			URL:      req.URL,
			Err:      err,
			Error:    err.Error(),
			Duration: s.cfg.now().Sub(start),
		}
	}

	return BatchItem{
		URL:         req.URL,
		Success:     true,
		Data:        res.Data,
		ContentType: res.ContentType,
		Duration:    res.Duration,
	}
}

// summarize computes batch aggregates. total is wall-clock time for the
// whole batch, not the sum of item durations.
func summarize(items []BatchItem, total time.Duration) *BatchOutcome {
	out := &BatchOutcome{
		Items:         items,
		Count:         len(items),
		TotalDuration: total,
	}
	for _, it := range items {
		if it.Success {
			out.SuccessCount++
		} else {
			out.FailedCount++
		}
	}
	if out.Count > 0 {
		out.AverageDuration = total / time.Duration(out.Count)
	}
	return out
}
