package sink

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/bowers/nest-simulator/internal/domain"
	"github.com/bowers/nest-simulator/internal/ports"
)

// TimescaleSink writes materialized datasets to a hypertable, one row per
// (variable, sample index) pair.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
}

func NewTimescaleSink(db *sql.DB, table string) *TimescaleSink {
	return &TimescaleSink{db: db, tableName: table}
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

func (t *TimescaleSink) Export(ds *domain.Dataset) error {
	if ds == nil || len(ds.Variables) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.tableName)
	b.WriteString(" (device_id, variable, sample_idx, sample_ms, value) VALUES ")

	var args []any
	for _, name := range ds.Variables {
		series, ok := ds.Series[name]
		if !ok {
			return fmt.Errorf("dataset for %q has no series for variable %q", ds.DeviceID, name)
		}
		for i, v := range series {
			if len(args) > 0 {
				b.WriteString(",")
			}
			b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)",
				len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5))
			args = append(args,
				ds.DeviceID,
				name,
				i,
				float64(i+1)*ds.Interval.Ms(),
				v,
			)
		}
	}
	if len(args) == 0 {
		return nil
	}

	b.WriteString(" ON CONFLICT (device_id, variable, sample_idx) DO NOTHING")

	_, err := t.db.Exec(b.String(), args...)
	return err
}

var _ ports.Exporter = (*TimescaleSink)(nil)
