package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/luca-finance/luca/internal/model"
)

// FormatTransactionID returns an id like "caixabank-3-01/03/2025".
// The id depends only on source, row position and the raw date text, so
// re-parsing the same file yields the same ids.
func FormatTransactionID(source model.Source, row int, rawDate string) string {
	return fmt.Sprintf("%s-%d-%s", source, row, rawDate)
}

// ParseTransactionID splits an id produced by FormatTransactionID.
func ParseTransactionID(id string) (source model.Source, row int, rawDate string, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		return "", 0, "", fmt.Errorf("invalid transaction ID format: %q", id)
	}

	row, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, "", fmt.Errorf("invalid row in transaction ID %q: %w", id, err)
	}
	return model.Source(parts[0]), row, parts[2], nil
}
