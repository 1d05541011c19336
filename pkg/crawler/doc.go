// Package crawler runs the portrait crawl end to end.
//
// For each configured batch the crawler reads the listing page, visits every
// sub-page it links to, groups the collected cards into named entries and
// downloads each entry into the batch directory. Two layouts exist:
//
//   - Run writes "{version}_s/{DisplayName}.jpg"
//   - RunByIdentifier writes "{version}/{Identifier}.jpg"
//
// A page that cannot be fetched aborts its batch only. A failed download is
// counted and, unless download.continue_on_error is false, the batch goes on.
// Files already on disk are skipped without a request, so a run can be
// repeated to fill in what an earlier run missed.
//
// Usage:
//
//	c, err := crawler.NewFromConfig(cfg, logger.GetLogger())
//	if err != nil {
//	    return err
//	}
//	summary := c.Run(ctx, cfg.Batches)
//	if err := summary.Err(); err != nil {
//	    log.Printf("some batches failed: %v", err)
//	}
package crawler
