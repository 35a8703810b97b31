package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateID returns "<prefix>-<uuid>".
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
