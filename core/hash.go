package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/anicka-net/ossuary/schema"
)

// hashInputs produces the stable digest of a ScoreInputs snapshot plus the
// model version. The cache uses it for idempotency checks: same inputs and
// model, same hash.
func hashInputs(inputs schema.ScoreInputs, modelVersion string) string {
	// JSON marshaling of the snapshot is deterministic: struct field order
	// is fixed and every map was flattened into slices upstream.
	payload, err := json.Marshal(inputs)
	if err != nil {
		// Inputs are plain data; marshaling cannot fail in practice.
		payload = []byte(fmt.Sprintf("%+v", inputs))
	}
	sum := sha256.Sum256(append(payload, []byte("|"+modelVersion)...))
	return fmt.Sprintf("%x", sum[:16])
}
