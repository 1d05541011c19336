package downloader

import (
	"bytes"
	"context"
	"io"
	"time"

	"sancg/pkg/logger"
)

// Job is a single image to store
type Job struct {
	URL       string
	Directory string
	Filename  string
	Version   string
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Path     string
	Skipped  bool
	Size     int
	Duration time.Duration
	Err      error
}

// ByteFetcher downloads a resource in one request
type ByteFetcher interface {
	Bytes(ctx context.Context, url string) ([]byte, error)
}

// FileStore persists files without overwriting existing ones
type FileStore interface {
	Exists(dir, filename string) bool
	Path(dir, filename string) string
	Save(r io.Reader, dir, filename string) (string, error)
}

// Downloader fetches images one at a time and hands them to a FileStore.
// A destination that already exists is never fetched again.
type Downloader struct {
	client ByteFetcher
	store  FileStore
	logger logger.Logger
}

// New creates a downloader
func New(client ByteFetcher, store FileStore, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{client: client, store: store, logger: log}
}

// Download stores url as directory/filename and returns the final path.
// Errors are download, not_found or permission errors.
func (d *Downloader) Download(ctx context.Context, url, directory, filename string) (string, error) {
	r := d.Run(ctx, Job{URL: url, Directory: directory, Filename: filename})
	return r.Path, r.Err
}

// Run processes job and reports whether it was written or skipped
func (d *Downloader) Run(ctx context.Context, job Job) Result {
	start := time.Now()
	result := Result{Job: job}
	log := d.logger.WithField("directory", job.Directory)

	if d.store.Exists(job.Directory, job.Filename) {
		result.Path = d.store.Path(job.Directory, job.Filename)
		result.Skipped = true
		result.Duration = time.Since(start)
		logger.LogDownload(log, job.Version, job.Filename, logger.DownloadSkipped, nil)
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	data, err := d.client.Bytes(ctx, job.URL)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		logger.LogDownload(log.WithField("url", job.URL), job.Version, job.Filename, logger.DownloadFailed, err)
		return result
	}

	logger.LogDownload(log, job.Version, job.Filename, logger.DownloadWritten, nil)
	path, err := d.store.Save(bytes.NewReader(data), job.Directory, job.Filename)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		logger.LogDownload(log, job.Version, job.Filename, logger.DownloadFailed, err)
		return result
	}

	result.Path = path
	result.Size = len(data)
	return result
}
