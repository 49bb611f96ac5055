package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"vocabhub/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeToUnix stores times as unix nanoseconds so ordering works in SQL
func timeToUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func unixToTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalSettings marshals settings to nullable JSON, storing nothing for
// an empty map
func marshalSettings(m map[string]string) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Row Scanning Types
// ============================================================================

// vocabularyRow holds scanned vocabulary columns
type vocabularyRow struct {
	id, title, source        string
	root, endpoint, download sql.NullString
	settings                 sql.NullString
	updatedAt                int64
}

func (r *vocabularyRow) scanArgs() []interface{} {
	return []interface{}{
		&r.id, &r.title, &r.source,
		&r.root, &r.endpoint, &r.download,
		&r.settings, &r.updatedAt,
	}
}

func (r *vocabularyRow) toDomain() (*domain.Vocabulary, error) {
	v := &domain.Vocabulary{
		ID:        r.id,
		Title:     r.title,
		Source:    domain.SourceKind(r.source),
		Root:      nullToString(r.root),
		Endpoint:  nullToString(r.endpoint),
		Download:  nullToString(r.download),
		UpdatedAt: unixToTime(r.updatedAt),
	}
	if err := unmarshalJSONField(r.settings, &v.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings of %s: %w", r.id, err)
	}
	return v, nil
}

// vocabularyInsertArgs builds the insert arguments for a vocabulary
func vocabularyInsertArgs(v *domain.Vocabulary) ([]interface{}, error) {
	settings, err := marshalSettings(v.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return []interface{}{
		v.ID,
		v.Title,
		string(v.Source),
		stringToNull(v.Root),
		stringToNull(v.Endpoint),
		stringToNull(v.Download),
		settings,
		timeToUnix(v.UpdatedAt),
	}, nil
}
