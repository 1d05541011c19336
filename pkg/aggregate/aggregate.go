package aggregate

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	errs "sancg/pkg/errors"
	"sancg/pkg/models"
)

// NormalizeDescription collapses every run of whitespace, newlines included,
// into one space and trims the ends.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Identifier returns the lowercase hex MD5 of "{displayName}_{version}".
func Identifier(displayName, version string) string {
	sum := md5.Sum([]byte(displayName + "_" + version))
	return hex.EncodeToString(sum[:])
}

// DisplayName names the member at position i of the group keyed by key.
func DisplayName(key string, i int) string {
	if i == 0 {
		return key
	}
	return fmt.Sprintf("%s_%d", key, i)
}

var byDescription = ByProjection(func(r models.RawRecord) any {
	return NormalizeDescription(r.Description)
})

// Aggregate groups records by normalized description and emits one entry per
// record, in group order then member order.
func Aggregate(records []models.RawRecord, version string) []models.Entry {
	entries, err := aggregateBy(records, version, byDescription)
	if err != nil {
		panic(fmt.Sprintf("aggregate: grouping by description failed: %v", err))
	}
	return entries
}

func aggregateBy(records []models.RawRecord, version string, key Key[models.RawRecord]) ([]models.Entry, error) {
	groups, err := GroupBy(records, key)
	if err != nil {
		return nil, err
	}

	entries := make([]models.Entry, 0, len(records))
	for _, g := range groups {
		name, ok := g.Key.(string)
		if !ok {
			return nil, errs.NewGroupKeyError(fmt.Sprintf("description key must be a string, got %T", g.Key))
		}
		for i, r := range g.Members {
			display := DisplayName(name, i)
			entries = append(entries, models.Entry{
				SourceURL:   r.SourceURL,
				DisplayName: display,
				Identifier:  Identifier(display, version),
			})
		}
	}
	return entries, nil
}

// Collisions returns the display names given to more than one entry, in
// first-seen order. A description that already ends in "_1" can collide with
// the second member of a shorter description's group.
func Collisions(entries []models.Entry) []string {
	seen := make(map[string]int, len(entries))
	var dups []string
	for _, e := range entries {
		seen[e.DisplayName]++
		if seen[e.DisplayName] == 2 {
			dups = append(dups, e.DisplayName)
		}
	}
	return dups
}
