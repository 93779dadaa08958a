package feed

import (
	"strings"

	"github.com/google/uuid"
)

const tempIdPrefix = "tmp-"

// NewTempId returns a placeholder id for an optimistic insert. It never
// collides with server ids, which are plain uuids.
func NewTempId() string {
	return tempIdPrefix + uuid.NewString()
}

func IsTempId(id string) bool {
	return strings.HasPrefix(id, tempIdPrefix)
}
