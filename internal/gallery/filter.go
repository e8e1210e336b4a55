package gallery

import (
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/imgport/internal/domain"
	"github.com/sahilm/fuzzy"
)

// Match is a visible image with the name positions that matched the filter
type Match struct {
	Record         domain.ImageRecord
	MatchedIndexes []int
}

// nameIndex implements fuzzy.Source over image names
type nameIndex struct {
	lowerNames []string
}

func (idx nameIndex) String(i int) string { return idx.lowerNames[i] }
func (idx nameIndex) Len() int            { return len(idx.lowerNames) }

// filterRecords returns records whose name fuzzy-matches query, best first.
// An empty query keeps every record in order.
func filterRecords(records []domain.ImageRecord, query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Match, len(records))
		for i, r := range records {
			out[i] = Match{Record: r}
		}
		return out
	}

	idx := nameIndex{lowerNames: make([]string, len(records))}
	for i, r := range records {
		idx.lowerNames[i] = strings.ToLower(r.Name)
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	out := make([]Match, len(matches))
	for i, m := range matches {
		out[i] = Match{Record: records[m.Index], MatchedIndexes: m.MatchedIndexes}
	}
	return out
}

// FilterHistory keeps import summaries whose folder reference or message
// fuzzy-matches query, preserving order.
func FilterHistory(history []domain.ImportSummary, query string) []domain.ImportSummary {
	query = strings.TrimSpace(query)
	if query == "" {
		return history
	}

	var out []domain.ImportSummary
	for _, s := range history {
		if lfuzzy.MatchFold(query, s.FolderReference) || lfuzzy.MatchFold(query, s.Message) {
			out = append(out, s)
		}
	}
	return out
}
