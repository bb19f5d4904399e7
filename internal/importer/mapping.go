package importer

import "strings"

// LogicalFields are the four transaction fields an import must resolve.
var LogicalFields = []string{"date", "merchant", "amount", "category"}

var fieldSynonyms = map[string][]string{
	"date":     {"date", "transaction date", "posted", "posted date", "booking date", "time", "timestamp"},
	"merchant": {"merchant", "merchant name", "description", "desc", "name", "payee", "vendor", "details"},
	"amount":   {"amount", "amt", "value", "sum", "total", "debit", "charge", "price"},
	"category": {"category", "categories", "type", "tag", "group"},
}

// Suggestion pairs a column mapping with a per-field confidence score.
type Suggestion struct {
	Mapping    map[string]string
	Confidence map[string]float64
}

// SuggestMapping matches source column headers against the logical fields.
// An unmatched field maps to the empty string, which downstream code reads
// as "auto-detect".
func SuggestMapping(columns []string) Suggestion {
	mapping := make(map[string]string, len(LogicalFields))
	confidence := make(map[string]float64, len(LogicalFields))

	taken := make(map[string]bool, len(columns))
	for _, field := range LogicalFields {
		column, score := bestColumn(field, columns, taken)
		mapping[field] = column
		if column != "" {
			confidence[field] = score
			taken[column] = true
		}
	}

	return Suggestion{Mapping: mapping, Confidence: confidence}
}

func bestColumn(field string, columns []string, taken map[string]bool) (string, float64) {
	best := ""
	bestScore := 0.0

	for _, column := range columns {
		if taken[column] {
			continue
		}
		score := matchScore(field, column)
		if score > bestScore {
			best = column
			bestScore = score
		}
	}

	return best, bestScore
}

func matchScore(field, column string) float64 {
	normalized := strings.ToLower(strings.TrimSpace(column))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)

	best := 0.0
	for i, synonym := range fieldSynonyms[field] {
		var score float64
		switch {
		case normalized == synonym:
			score = 1.0
		case strings.Contains(normalized, synonym) || strings.Contains(synonym, normalized):
			score = 0.7
		default:
			continue
		}
		// Earlier synonyms are stronger signals than later ones
		score -= float64(i) * 0.02
		if score > best {
			best = score
		}
	}

	return best
}

// InferSchema labels each column as number, date or string based on its values.
func InferSchema(parsed *Parsed) map[string]string {
	schema := make(map[string]string, len(parsed.Columns))
	for _, column := range parsed.Columns {
		schema[column] = inferColumnType(column, parsed.Rows)
	}
	return schema
}

func inferColumnType(column string, rows []map[string]string) string {
	seen, numbers, dates := 0, 0, 0
	for _, row := range rows {
		value := row[column]
		if value == "" {
			continue
		}
		seen++
		if _, err := ParseAmount(value); err == nil {
			numbers++
		}
		if _, err := ParseDate(value); err == nil {
			dates++
		}
	}

	if seen == 0 {
		return "string"
	}
	// Dates win over numbers: "2024-01-02" should not read as arithmetic
	if dates == seen {
		return "date"
	}
	if numbers == seen {
		return "number"
	}
	return "string"
}
