package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record is one decoded JSON log line.
type Record struct {
	Time    string
	Level   string
	Message string
	RunID   string
	Fields  map[string]any
	Raw     string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

func parseRecord(line []byte) (Record, bool) {
	var fields map[string]any
	if err := json.Unmarshal(line, &fields); err != nil {
		return Record{}, false
	}
	record := Record{Raw: string(line), Fields: fields}
	record.Time, _ = fields["ts"].(string)
	record.Level, _ = fields["level"].(string)
	record.Message, _ = fields["msg"].(string)
	record.RunID, _ = fields["run_id"].(string)
	for _, key := range []string{"ts", "level", "msg"} {
		delete(fields, key)
	}
	return record, true
}

func (q Query) matches(record Record) bool {
	if q.RunID != "" && !strings.HasPrefix(record.RunID, q.RunID) {
		return false
	}
	if min, ok := levelRank[strings.ToLower(q.MinLevel)]; ok {
		if rank, known := levelRank[record.Level]; known && rank < min {
			return false
		}
	}
	return true
}

// Format renders a record as a single human-readable line with its fields
// sorted by key.
func (r Record) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", r.Time, strings.ToUpper(r.Level), r.Message)
	keys := make([]string, 0, len(r.Fields))
	for key := range r.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, r.Fields[key])
	}
	return b.String()
}
