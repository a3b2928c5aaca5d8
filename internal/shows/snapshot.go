package shows

import (
	"encoding/json"
	"fmt"

	"github.com/showsettle/showsettle-backend/internal/settlement"
)

// snapshotSchemaVersion tags every stored inputs/results blob so malformed or
// future-shaped historical rows are rejected at the boundary instead of being
// silently misread.
const snapshotSchemaVersion = 1

type inputSnapshot struct {
	SchemaVersion int              `json:"schema_version"`
	Input         settlement.Input `json:"input"`
}

type resultSnapshot struct {
	SchemaVersion int               `json:"schema_version"`
	Result        settlement.Result `json:"result"`
}

func encodeInputSnapshot(input settlement.Input) (json.RawMessage, error) {
	raw, err := json.Marshal(inputSnapshot{
		SchemaVersion: snapshotSchemaVersion,
		Input:         input,
	})
	if err != nil {
		return nil, fmt.Errorf("encode input snapshot: %w", err)
	}
	return raw, nil
}

func encodeResultSnapshot(result settlement.Result) (json.RawMessage, error) {
	raw, err := json.Marshal(resultSnapshot{
		SchemaVersion: snapshotSchemaVersion,
		Result:        result,
	})
	if err != nil {
		return nil, fmt.Errorf("encode result snapshot: %w", err)
	}
	return raw, nil
}

func decodeInputSnapshot(raw json.RawMessage) (*settlement.Input, error) {
	var snapshot inputSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode input snapshot: %w", err)
	}
	if snapshot.SchemaVersion != snapshotSchemaVersion {
		return nil, fmt.Errorf("unsupported input snapshot version %d", snapshot.SchemaVersion)
	}
	return &snapshot.Input, nil
}

func decodeResultSnapshot(raw json.RawMessage) (*settlement.Result, error) {
	var snapshot resultSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode result snapshot: %w", err)
	}
	if snapshot.SchemaVersion != snapshotSchemaVersion {
		return nil, fmt.Errorf("unsupported result snapshot version %d", snapshot.SchemaVersion)
	}
	return &snapshot.Result, nil
}
