package ranking

import (
	"strings"

	"github.com/okian/kpiboard/internal/domain/model"
)

// Scope restricts which records take part in a ranking. Empty fields match
// everything.
type Scope struct {
	GroupID string
	Role    string
}

// IsZero reports whether the scope matches every record.
func (s Scope) IsZero() bool {
	return s.GroupID == "" && s.Role == ""
}

// Matches reports whether rec falls inside the scope. Roles compare
// case-insensitively.
func (s Scope) Matches(rec model.MetricRecord) bool {
	if s.GroupID != "" && rec.GroupID != s.GroupID {
		return false
	}
	if s.Role != "" && !strings.EqualFold(rec.Role, s.Role) {
		return false
	}
	return true
}

// Filter returns the records inside scope, preserving order.
func Filter(records []model.MetricRecord, scope Scope) []model.MetricRecord {
	if scope.IsZero() {
		return records
	}
	out := make([]model.MetricRecord, 0, len(records))
	for _, rec := range records {
		if scope.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}
