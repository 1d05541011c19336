package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sancg/internal/downloader"
	"sancg/pkg/aggregate"
	"sancg/pkg/config"
	"sancg/pkg/extract"
	"sancg/pkg/fetch"
	"sancg/pkg/logger"
	"sancg/pkg/models"
	"sancg/pkg/ratelimit"
	"sancg/pkg/script"
	"sancg/pkg/storage"
)

// Client is the network handle shared by every stage of a run
type Client interface {
	extract.DocumentFetcher
	downloader.ByteFetcher
}

// Progress receives crawl events as they happen
type Progress interface {
	BatchStarted(batch models.Batch, entries int)
	ItemDone(result downloader.Result)
	BatchFinished(result BatchResult)
}

// Crawler drives the extract, aggregate and download pipeline over a list
// of batches. Batches run one after another and share no state.
type Crawler struct {
	config     *config.Config
	links      *extract.LinkExtractor
	records    *extract.RecordExtractor
	downloader *downloader.Downloader
	progress   Progress
	runID      string
	logger     logger.Logger
}

// New creates a crawler around an existing client. A nil converter keeps
// scraped text in its original script.
func New(cfg *config.Config, client Client, converter script.Converter, log logger.Logger) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}

	runID := uuid.NewString()
	log = log.WithField("run_id", runID)

	return &Crawler{
		config:     cfg,
		links:      extract.NewLinkExtractor(client, cfg.Site, log),
		records:    extract.NewRecordExtractor(client, cfg.Site, converter, log),
		downloader: downloader.New(client, storage.NewManager(cfg.Output.BaseDirectory), log),
		runID:      runID,
		logger:     log,
	}
}

// NewFromConfig builds the fetch client, rate limiter and script converter
// described by cfg.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Crawler, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	converter, err := script.New(cfg.Site.ScriptProfile)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute)
	client := fetch.NewClient(cfg, limiter, log)

	return New(cfg, client, converter, log), nil
}

// SetProgress registers a progress observer
func (c *Crawler) SetProgress(p Progress) {
	c.progress = p
}

// RunID returns the identifier attached to every log line of this crawler
func (c *Crawler) RunID() string {
	return c.runID
}

// Run crawls every batch and stores each image as
// "{version}_s/{DisplayName}.jpg".
func (c *Crawler) Run(ctx context.Context, batches []models.Batch) Summary {
	return c.RunWith(ctx, batches, config.NamingDisplay)
}

// RunByIdentifier crawls every batch and stores each image as
// "{version}/{Identifier}.jpg".
func (c *Crawler) RunByIdentifier(ctx context.Context, batches []models.Batch) Summary {
	return c.RunWith(ctx, batches, config.NamingIdentifier)
}

// RunWith crawls every batch with the given naming mode. A failing batch is
// logged and the next one starts. Cancelling ctx stops the run.
func (c *Crawler) RunWith(ctx context.Context, batches []models.Batch, naming string) Summary {
	start := time.Now()
	summary := Summary{RunID: c.runID, Naming: naming}

	c.logger.InfoWithFields("Crawl started", map[string]interface{}{
		"batches": len(batches),
		"naming":  naming,
	})

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			c.logger.WithError(err).Warn("Crawl cancelled")
			break
		}

		result := c.CrawlBatch(ctx, batch, naming)
		if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
			c.logger.WithError(result.Err).WithField("version", batch.Version).Error("Batch failed")
		}
		summary.Batches = append(summary.Batches, result)
	}

	summary.Duration = time.Since(start)
	c.logger.InfoWithFields("Crawl finished", map[string]interface{}{
		"written":  summary.Written(),
		"skipped":  summary.Skipped(),
		"failed":   summary.Failed(),
		"duration": summary.Duration,
	})

	return summary
}

// CrawlBatch runs the whole pipeline for one batch
func (c *Crawler) CrawlBatch(ctx context.Context, batch models.Batch, naming string) BatchResult {
	start := time.Now()
	dir := config.ExpandDirectory(c.config.Output.PatternFor(naming), batch.Version)
	result := BatchResult{Batch: batch, Directory: c.config.Output.DirectoryFor(c.config.Output.PatternFor(naming), batch.Version)}

	logger.LogBatchStart(c.logger, batch.Version, batch.ListingURL)

	entries, links, err := c.Entries(ctx, batch)
	result.Links = links
	result.Entries = len(entries)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		c.finish(result)
		return result
	}

	if c.progress != nil {
		c.progress.BatchStarted(batch, len(entries))
	}

	for _, entry := range entries {
		job := downloader.Job{
			URL:       entry.SourceURL,
			Directory: dir,
			Filename:  c.filename(entry, naming),
			Version:   batch.Version,
		}

		r := c.downloader.Run(ctx, job)
		if c.progress != nil {
			c.progress.ItemDone(r)
		}

		switch {
		case r.Err != nil:
			result.Failed++
			if ctx.Err() != nil {
				result.Err = ctx.Err()
			} else if !c.config.Download.ContinueOnError {
				result.Err = fmt.Errorf("stopping batch %s: %w", batch.Version, r.Err)
			}
		case r.Skipped:
			result.Skipped++
		default:
			result.Written++
		}

		if result.Err != nil {
			break
		}
	}

	result.Duration = time.Since(start)
	c.finish(result)
	return result
}

// Entries extracts and aggregates the records of one batch. It also returns
// the number of sub-pages visited. Any fetch error aborts the batch.
func (c *Crawler) Entries(ctx context.Context, batch models.Batch) ([]models.Entry, int, error) {
	links, err := c.links.Links(ctx, batch.ListingURL)
	if err != nil {
		return nil, 0, fmt.Errorf("listing %s: %w", batch.Version, err)
	}

	var records []models.RawRecord
	visited := 0
	for links.Next() {
		if err := ctx.Err(); err != nil {
			return nil, visited, err
		}

		it, err := c.records.Records(ctx, links.URL())
		if err != nil {
			return nil, visited, fmt.Errorf("sub-page of %s: %w", batch.Version, err)
		}
		visited++
		records = append(records, it.Collect()...)
	}

	c.logger.DebugWithFields("Records extracted", map[string]interface{}{
		"version": batch.Version,
		"links":   visited,
		"records": len(records),
	})

	entries := aggregate.Aggregate(records, batch.Version)
	for _, name := range aggregate.Collisions(entries) {
		c.logger.WarnWithFields("Duplicate display name, later entries will be skipped", map[string]interface{}{
			"version":      batch.Version,
			"display_name": name,
		})
	}

	return entries, visited, nil
}

func (c *Crawler) filename(entry models.Entry, naming string) string {
	if naming == config.NamingIdentifier {
		return entry.Identifier + c.config.Output.Extension
	}
	return entry.DisplayName + c.config.Output.Extension
}

func (c *Crawler) finish(result BatchResult) {
	logger.LogBatchSummary(c.logger, result.Batch.Version, result.Written, result.Skipped, result.Failed, result.Duration)
	if c.progress != nil {
		c.progress.BatchFinished(result)
	}
}
