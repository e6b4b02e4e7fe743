package persistence

import (
	"database/sql"
	"time"

	"github.com/petrijr/rastro/pkg/api"
)

// sqlRecordColumns is the column list shared by the SQL sinks, in scan order.
const sqlRecordColumns = `at, source, kind, engine_id, wfid, expression_name, expid, message, participant, line`

func recordArgs(rec api.Record) []any {
	var fei api.FlowExpressionID
	if rec.CorrelationID != nil {
		fei = *rec.CorrelationID
	}
	at := rec.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	return []any{
		at.UnixNano(),
		string(rec.Source),
		string(rec.Kind),
		fei.EngineID,
		fei.WorkflowInstanceID,
		fei.ExpressionName,
		fei.ExpressionID,
		rec.Message,
		rec.Participant,
		rec.Line,
	}
}

func scanRecords(rows *sql.Rows) ([]api.Record, error) {
	defer rows.Close()

	var out []api.Record
	for rows.Next() {
		var (
			atN    int64
			source string
			kind   string
			fei    api.FlowExpressionID
			rec    api.Record
		)
		if err := rows.Scan(&atN, &source, &kind,
			&fei.EngineID, &fei.WorkflowInstanceID, &fei.ExpressionName, &fei.ExpressionID,
			&rec.Message, &rec.Participant, &rec.Line); err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(0, atN)
		rec.Source = api.Source(source)
		rec.Kind = api.Kind(kind)
		if !fei.IsZero() {
			rec.CorrelationID = &fei
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
