package storage

import (
	"fmt"
	"os"
	"sort"

	"voicetime/internal/models"
)

// EnsureDir creates the directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// SortTotals orders totals by descending total, then by user ID.
func SortTotals(totals []models.UserTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].TotalMs != totals[j].TotalMs {
			return totals[i].TotalMs > totals[j].TotalMs
		}
		return totals[i].UserID < totals[j].UserID
	})
}
