package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// marshalAdjustments encodes per-axis adjustments. An empty map is stored as NULL.
func marshalAdjustments(adj map[domain.Axis]domain.Adjustment) (pqtype.NullRawMessage, error) {
	if len(adj) == 0 {
		return pqtype.NullRawMessage{}, nil
	}
	data, err := json.Marshal(adj)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

// unmarshalAdjustments decodes stored adjustments, never returning a nil map.
func unmarshalAdjustments(raw pqtype.NullRawMessage) (map[domain.Axis]domain.Adjustment, error) {
	adj := make(map[domain.Axis]domain.Adjustment)
	if !raw.Valid {
		return adj, nil
	}
	if err := json.Unmarshal(raw.RawMessage, &adj); err != nil {
		return nil, err
	}
	return adj, nil
}

func nullTimeToPtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}

func ptrToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
