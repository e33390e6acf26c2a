package database

const (
	SortNameAsc     = "name_asc"
	SortNameNat     = "name_nat"
	SortCreatedAsc  = "created_asc"
	SortCreatedDesc = "created_desc"
	SortUpdatedDesc = "updated_desc"
)

const DefaultSortOrder = SortNameAsc

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortNameAsc, SortNameNat, SortCreatedAsc, SortCreatedDesc, SortUpdatedDesc:
		return true
	default:
		return false
	}
}

// OrderClause maps a sort order to its SQL ORDER BY expression. Natural
// ordering has no SQL form; callers sort in memory and get "id ASC" here.
func OrderClause(order string) string {
	switch order {
	case SortCreatedAsc:
		return "created_at ASC, id ASC"
	case SortCreatedDesc:
		return "created_at DESC, id DESC"
	case SortUpdatedDesc:
		return "updated_at DESC, id DESC"
	case SortNameNat:
		return "id ASC"
	default:
		return "name ASC, id ASC"
	}
}
