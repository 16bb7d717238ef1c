package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSecretPrefersEnvironment(t *testing.T) {
	t.Setenv("FREIGHTLINK_TEST_SECRET", "from-env")

	client := NewDopplerClient("freightlink", "test")
	value, err := client.GetSecret("FREIGHTLINK_TEST_SECRET")

	assert.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestGetSecretWithFallbackWhenUninitialized(t *testing.T) {
	client := NewDopplerClient("freightlink", "test")

	_, err := client.GetSecret("FREIGHTLINK_MISSING_SECRET")
	assert.Error(t, err)
	assert.Equal(t, "fallback", client.GetSecretWithFallback("FREIGHTLINK_MISSING_SECRET", "fallback"))
}
