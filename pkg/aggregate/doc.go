// Package aggregate groups scraped records and assigns each one a stable,
// collision-free name.
//
// Records sharing a whitespace-normalized description form one group. The
// first member of a group is named after the description, later members get
// a "_1", "_2", ... suffix in encounter order. Every name is paired with an
// identifier, the MD5 hex digest of "{name}_{version}", which stays the same
// across runs for the same name and version.
//
// GroupBy is the generic building block. A Key is either a field selector
// or a projection function:
//
//	groups, err := aggregate.GroupBy(people, aggregate.ByField[aggregate.Fields]("age"))
//
// KeyOf resolves a loosely typed key spec into a Key and rejects anything
// else with a group_key error before grouping starts.
package aggregate
