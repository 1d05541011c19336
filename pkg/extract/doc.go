// Package extract turns wiki pages into crawl inputs.
//
// LinkExtractor reads a listing page and yields the sub-page URL behind each
// excerpt header. RecordExtractor reads a sub-page and yields one
// models.RawRecord per portrait card, with names and descriptions converted
// to the canonical script.
//
// Both return pull iterators over a single fetched document:
//
//	links, err := extract.NewLinkExtractor(client, cfg.Site, log).Links(ctx, listingURL)
//	if err != nil {
//		return err
//	}
//	for links.Next() {
//		fmt.Println(links.URL())
//	}
//
// Iterators are single-pass and not safe for concurrent use.
package extract
