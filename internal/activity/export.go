package activity

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"
)

// WriteCSV renders log entries as a CSV document for download.
func WriteCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "created_at", "user_id", "action", "object_type", "object_id", "description", "ip_address", "metadata"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, e := range entries {
		metadata := ""
		if e.Metadata != nil {
			if data, err := json.Marshal(e.Metadata); err == nil {
				metadata = string(data)
			}
		}
		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(e.UserID, 10),
			e.Action,
			e.ObjectType,
			e.ObjectID,
			e.Description,
			e.IPAddress,
			metadata,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
