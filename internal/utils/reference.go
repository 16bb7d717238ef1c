package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateReference builds a human readable transaction reference that stays
// stable for a given operation id, e.g. CONV_20261016_3F2A9C1B
func GenerateReference(prefix string, id uuid.UUID, at time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("%s_%s_%s", prefix, at.UTC().Format("20060102"), short)
}
