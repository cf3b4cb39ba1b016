package models

import "encoding/json"

// mustJSON marshals values whose encoding cannot fail (plain structs of
// strings and numbers).
func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}
