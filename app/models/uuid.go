package models

import "github.com/google/uuid"

// AssignUUID fills an empty primary key with a random UUID.
func AssignUUID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
