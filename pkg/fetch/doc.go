// Package fetch is the crawler's only network layer.
//
// Client.Document returns a parsed goquery document for listing pages and
// sub-pages; failures are reported as fetch errors. Client.Bytes returns the
// raw body of an image; failures are reported as download errors. Every
// request waits on the configured rate limiter first.
package fetch
