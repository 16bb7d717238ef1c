package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateReference(t *testing.T) {
	id := uuid.MustParse("3f2a9c1b-0000-4000-8000-000000000000")
	at := time.Date(2026, 10, 16, 23, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))

	assert.Equal(t, "CONV_20261017_3F2A9C1B", GenerateReference("CONV", id, at))
}
