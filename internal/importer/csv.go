package importer

import (
	"sort"
	"strings"

	"github.com/luca-finance/luca/internal/model"
)

const utf8BOM = "\ufeff"

// indexHeader maps trimmed column names to their positions.
func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

// field returns the named column of rec, or "" when absent.
func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func sortByDateDesc(txns []model.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.After(txns[j].Date)
	})
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
