package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
)

// decodeArgs decodes the model's JSON arguments into T. Empty input yields the zero value.
func decodeArgs[T any](argsJSON string) (T, error) {
	var out T
	raw := strings.TrimSpace(argsJSON)
	if raw == "" || raw == "null" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("%w: invalid capability arguments: %v", contractx.ErrSchemaViolation, err)
	}
	return out, nil
}

// looseString accepts either a JSON string or a JSON number, since models send ids both ways.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

// parseUserID converts a bound or requested user id. Non-numeric ids are treated as absent.
func parseUserID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func capabilityError(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", contractx.ErrCapability, name, err)
}
