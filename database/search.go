package database

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/camden-git/loreboardbackend/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// SearchHit is one entity whose name or alias matched a search query.
type SearchHit struct {
	EntityType models.EntityType `json:"entity_type"`
	EntityID   uint              `json:"entity_id"`
	Name       string            `json:"name"`
	MatchedOn  string            `json:"matched_on"`
}

var entityTables = map[models.EntityType]string{
	models.EntityTypeCharacter: "characters",
	models.EntityTypePlace:     "places",
	models.EntityTypeItem:      "items",
}

// SearchEntities finds entities whose name or any alias contains query
// (SQLite LIKE, case-insensitive for ASCII). When entityType is empty every
// table is searched. Results are unique per entity, name matches first.
func SearchEntities(db *sql.DB, query string, entityType models.EntityType) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchHit{}, nil
	}
	like := "%" + escapeLike(query) + "%"

	types := models.EntityTypes
	if entityType != "" {
		types = []models.EntityType{entityType}
	}

	var parts []string
	var allArgs []interface{}
	for _, t := range types {
		table := entityTables[t]
		nameQuery := psql.Select(
			fmt.Sprintf("'%s' AS entity_type", t), "id AS entity_id", "name", "name AS matched_on", "0 AS match_rank",
		).From(table).Where(sq.Expr("name LIKE ? ESCAPE '\\'", like))

		aliasQuery := psql.Select(
			"a.entity_type", "e.id", "e.name", "a.alias", "1 AS match_rank",
		).From("aliases a").
			Join(fmt.Sprintf("%s e ON e.id = a.entity_id", table)).
			Where(sq.Eq{"a.entity_type": string(t)}).
			Where(sq.Expr("a.alias LIKE ? ESCAPE '\\'", like))

		for _, b := range []sq.SelectBuilder{nameQuery, aliasQuery} {
			sqlStr, args, err := b.ToSql()
			if err != nil {
				return nil, fmt.Errorf("failed to build search query for %s: %w", table, err)
			}
			parts = append(parts, sqlStr)
			allArgs = append(allArgs, args...)
		}
	}

	fullSQL := strings.Join(parts, " UNION ALL ") + " ORDER BY match_rank ASC, name ASC"
	rows, err := db.Query(fullSQL, allArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute entity search for '%s': %w", query, err)
	}
	defer rows.Close()

	hits := []SearchHit{}
	seen := make(map[string]bool)
	for rows.Next() {
		var h SearchHit
		var rank int
		var et string
		if err := rows.Scan(&et, &h.EntityID, &h.Name, &h.MatchedOn, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		h.EntityType = models.EntityType(et)
		key := fmt.Sprintf("%s:%d", et, h.EntityID)
		if seen[key] {
			continue
		}
		seen[key] = true
		hits = append(hits, h)
	}
	if err = rows.Err(); err != nil {
		return hits, fmt.Errorf("error iterating search results for '%s': %w", query, err)
	}
	return hits, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
