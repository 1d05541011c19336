package extract

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sancg/pkg/config"
	"sancg/pkg/logger"
	"sancg/pkg/models"
	"sancg/pkg/script"
)

// RecordExtractor yields the portrait cards of a sub-page.
type RecordExtractor struct {
	fetcher      DocumentFetcher
	cardSelector string
	converter    script.Converter
	logger       logger.Logger
}

// NewRecordExtractor creates a record extractor. A nil converter leaves
// text in its original script.
func NewRecordExtractor(fetcher DocumentFetcher, site config.SiteConfig, converter script.Converter, log logger.Logger) *RecordExtractor {
	if log == nil {
		log = logger.GetLogger()
	}
	if converter == nil {
		converter = script.Identity{}
	}
	return &RecordExtractor{
		fetcher:      fetcher,
		cardSelector: site.CardSelector,
		converter:    converter,
		logger:       log,
	}
}

// Records fetches the sub-page once and returns an iterator over its cards
// in document order.
func (e *RecordExtractor) Records(ctx context.Context, pageURL string) (*RecordIterator, error) {
	doc, err := e.fetcher.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	cards := doc.Find(e.cardSelector)
	e.logger.DebugWithFields("Sub-page parsed", map[string]interface{}{
		"url":   pageURL,
		"cards": cards.Length(),
	})

	return &RecordIterator{
		cards:     cards,
		base:      doc.Url,
		page:      pageURL,
		converter: e.converter,
		logger:    e.logger,
	}, nil
}

// RecordIterator walks the cards of one sub-page.
type RecordIterator struct {
	cards     *goquery.Selection
	base      *url.URL
	page      string
	converter script.Converter
	logger    logger.Logger
	pos       int
	current   models.RawRecord
}

// Next advances to the next card that carries an image link
func (it *RecordIterator) Next() bool {
	for it.pos < it.cards.Length() {
		card := it.cards.Eq(it.pos)
		it.pos++

		record, ok := it.parse(card)
		if !ok {
			continue
		}
		it.current = record
		return true
	}
	it.current = models.RawRecord{}
	return false
}

// Record returns the record at the current position
func (it *RecordIterator) Record() models.RawRecord {
	return it.current
}

// Collect drains the iterator
func (it *RecordIterator) Collect() []models.RawRecord {
	var records []models.RawRecord
	for it.Next() {
		records = append(records, it.Record())
	}
	return records
}

func (it *RecordIterator) parse(card *goquery.Selection) (models.RawRecord, bool) {
	anchors := card.Find("a")
	if anchors.Length() == 0 {
		it.logger.DebugWithFields("Card without anchors skipped", map[string]interface{}{
			"page":     it.page,
			"position": it.pos - 1,
		})
		return models.RawRecord{}, false
	}

	href, _ := anchors.First().Attr("href")
	source, ok := absoluteURL(href, it.base)
	if !ok {
		it.logger.DebugWithFields("Card without image link skipped", map[string]interface{}{
			"page":     it.page,
			"position": it.pos - 1,
			"href":     href,
		})
		return models.RawRecord{}, false
	}

	description := script.Normalize(it.converter, strings.TrimSpace(textContent(card)), it.logger)

	name := description
	if anchors.Length() > 1 {
		name = script.Normalize(it.converter, textContent(anchors.Eq(1)), it.logger)
	}

	return models.RawRecord{
		Name:        strings.TrimSpace(name),
		Description: description,
		SourceURL:   source,
	}, true
}
