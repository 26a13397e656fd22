// Package webshot captures web pages as PNG, JPEG or PDF using headless
// Chrome.
//
// # Quick Start
//
// Start a service, capture a page, and close when done:
//
//	svc, err := webshot.NewService(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	res, err := svc.Capture(ctx, webshot.CaptureRequest{
//	    URL: "https://example.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("example.png", res.Data, 0644)
//
// # Capture Pipeline
//
// Each capture runs on one pooled render context (an incognito browser
// context holding a single tab):
//
//  1. Request interception: ad, consent and tracker requests fail with
//     BlockedByClient (disable per request with DisableBlocking)
//  2. Viewport: device preset, explicit size, or 1280x720
//  3. Navigation up to DOMContentLoaded, bounded by the navigation timeout
//  4. Readiness: lazy-load scroll pass (FullPage only), image wait, delay
//  5. Encoding: screenshot (png, jpeg) or A4 document (pdf)
//
// The tab is then reset to about:blank and returned to the pool.
//
// # Context Pool
//
// All contexts share one Chrome process. The pool holds a fixed number of
// contexts (WithPoolSize, default GOMAXPROCS/2 clamped to 1-8). A context
// older than WithMaxContextAge is replaced on release. When every context
// is busy, Acquire waits once for the retry delay, then creates an
// overflow context that is destroyed on release.
//
// # Batches
//
// CaptureMany runs up to MaxBatchSize captures concurrently. Each URL
// succeeds or fails on its own:
//
//	out, err := svc.CaptureMany(ctx, urls, webshot.CaptureOptions{
//	    Format: webshot.FormatJPEG,
//	    Device: webshot.DeviceMobile,
//	})
//	for _, it := range out.Items {
//	    if !it.Success {
//	        fmt.Println(it.URL, it.Error)
//	    }
//	}
//
// # Errors
//
// Failures wrap sentinel errors, so callers can use errors.Is:
//
//	if errors.Is(err, webshot.ErrNavigationTimeout) {
//	    // page took too long
//	}
package webshot
