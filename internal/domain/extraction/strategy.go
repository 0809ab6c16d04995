package extraction

import "context"

// Strategy is one extraction approach in the ordered chain. A strategy
// returns the sections it could populate; returning no entries (or an
// error) hands control to the next strategy rather than aborting.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc *document) ([]Section, error)
}

// hasEntries reports whether at least one section carries clinical data,
// which is the condition for a strategy's output to win the chain.
func hasEntries(sections []Section) bool {
	for _, s := range sections {
		if len(s.Entries) > 0 {
			return true
		}
	}
	return false
}
