package reportview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ignatzorin/roadwatch/internal/models"
)

// SortKey — порядок списка отчётов.
type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortUpvotes  SortKey = "upvotes"
	SortSeverity SortKey = "severity"
)

// FilterAll пропускает любые значения статуса или серьёзности.
const FilterAll = "all"

// EmptyMessage показывается, когда под фильтры не подошёл ни один отчёт.
const EmptyMessage = "No reports found. Try adjusting your search or filter criteria to find what you're looking for."

// ParseSortKey проверяет ключ сортировки. Пустая строка — newest.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortUpvotes, SortSeverity:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// Query — параметры отображения списка.
type Query struct {
	Search   string
	Status   string
	Severity string
	Sort     SortKey
}

// DefaultQuery — всё без фильтров, сначала новые.
func DefaultQuery() Query {
	return Query{Status: FilterAll, Severity: FilterAll, Sort: SortNewest}
}

// Result — видимое подмножество отчётов.
type Result []models.Report

// Empty сообщает, что под фильтры ничего не подошло. Это не ошибка.
func (r Result) Empty() bool { return len(r) == 0 }

// View фильтрует и сортирует отчёты. Входной срез не изменяется,
// при равных ключах сохраняется исходный порядок.
func View(reports []models.Report, q Query) Result {
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := make(Result, 0, len(reports))
	for _, r := range reports {
		if !matchesSearch(r, term) {
			continue
		}
		if !matchesFilter(string(r.Status), q.Status) {
			continue
		}
		if !matchesFilter(string(r.Severity), q.Severity) {
			continue
		}
		out = append(out, r)
	}

	if less := comparator(q.Sort, out); less != nil {
		sort.SliceStable(out, less)
	}
	return out
}

func matchesSearch(r models.Report, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Title), term) ||
		strings.Contains(strings.ToLower(r.Description), term)
}

func matchesFilter(value, filter string) bool {
	if filter == "" || filter == FilterAll {
		return true
	}
	return value == filter
}

func comparator(key SortKey, rs Result) func(i, j int) bool {
	switch key {
	case SortNewest:
		return func(i, j int) bool { return rs[i].DateReported.After(rs[j].DateReported) }
	case SortOldest:
		return func(i, j int) bool { return rs[i].DateReported.Before(rs[j].DateReported) }
	case SortUpvotes:
		return func(i, j int) bool { return rs[i].Upvotes > rs[j].Upvotes }
	case SortSeverity:
		return func(i, j int) bool { return rs[i].Severity.Rank() > rs[j].Severity.Rank() }
	}
	return nil
}
