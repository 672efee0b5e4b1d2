// Package sqltypes maps sampled document values onto SQL Server column types
// and reconciles heterogeneous observations into one recommended type per field.
package sqltypes

// Type tokens produced by inference. These strings are part of the mapping
// model contract; downstream SQL generation emits them verbatim.
const (
	TypeUniqueIdentifier = "UNIQUEIDENTIFIER"
	TypeDateTime2        = "DATETIME2"
	TypeDate             = "DATE"

	TypeDecimal0 = "DECIMAL(18,0)"
	TypeDecimal2 = "DECIMAL(18,2)"
	TypeDecimal4 = "DECIMAL(18,4)"
	TypeDecimal6 = "DECIMAL(18,6)"

	TypeTinyInt  = "TINYINT"
	TypeSmallInt = "SMALLINT"
	TypeInt      = "INT"
	TypeBigInt   = "BIGINT"

	TypeBit = "BIT"

	TypeNVarChar50   = "NVARCHAR(50)"
	TypeNVarChar100  = "NVARCHAR(100)"
	TypeNVarChar255  = "NVARCHAR(255)"
	TypeNVarChar1000 = "NVARCHAR(1000)"
	TypeNVarCharMax  = "NVARCHAR(MAX)"

	// TypeNull marks an observed null. It contributes to nullability, never
	// to the reconciled type.
	TypeNull = "NULL"
)

// ReconcilePriority is the explicit specificity ladder: most specific first,
// independent of observation frequency. Reconcile picks the highest-ranked
// token present, so merging additional samples can only widen within a
// family (wider text bound, more precise decimal), never narrow.
var ReconcilePriority = []string{
	TypeUniqueIdentifier,
	TypeDateTime2,
	TypeDate,
	TypeDecimal6,
	TypeDecimal4,
	TypeDecimal2,
	TypeDecimal0,
	TypeBigInt,
	TypeInt,
	TypeSmallInt,
	TypeTinyInt,
	TypeBit,
	TypeNVarChar1000,
	TypeNVarChar255,
	TypeNVarChar100,
	TypeNVarChar50,
	TypeNVarCharMax,
}

var priorityRank = func() map[string]int {
	ranks := make(map[string]int, len(ReconcilePriority))
	for i, token := range ReconcilePriority {
		ranks[token] = i
	}
	return ranks
}()

// Rank returns the ladder position of a token (lower is more specific) and
// whether the token participates in reconciliation at all.
func Rank(token string) (int, bool) {
	r, ok := priorityRank[token]
	return r, ok
}

// Reconcile picks one recommended type from the set of observed tokens.
// The NULL marker and unknown tokens are skipped; an empty or unmatched set
// falls back to unbounded text.
func Reconcile(detected map[string]struct{}) string {
	best := -1
	for token := range detected {
		r, ok := priorityRank[token]
		if !ok {
			continue
		}
		if best == -1 || r < best {
			best = r
		}
	}
	if best == -1 {
		return TypeNVarCharMax
	}
	return ReconcilePriority[best]
}
