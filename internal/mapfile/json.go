package mapfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// decodeJSON accepts either a single map object or an array of them. Ids
// are already integers in JSON.
func decodeJSON(r io.Reader) ([]Map, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var maps []Map
		if err := json.Unmarshal(data, &maps); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return maps, nil
	}

	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return []Map{m}, nil
}

func encodeJSON(w io.Writer, maps []Map) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(maps)
}
