//go:build e2e

package estate_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/estate/pkg/estatesdk"
	"github.com/stretchr/testify/require"
)

func TestLoginRateLimit(t *testing.T) {
	baseURL, cleanup := setupEstateContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := estatesdk.NewSDKClient(baseURL)

	var limited bool
	for range 10 {
		_, err := client.Login(t.Context(), demoEmail, "wrong-password")
		require.Error(t, err)

		var apiErr *estatesdk.Error
		require.ErrorAs(t, err, &apiErr)
		if apiErr.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
		require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	}
	require.True(t, limited, "login attempts should be rate limited")

	// The limit is per email, so another address still gets through.
	_, err := client.Login(t.Context(), "someone@example.com", "password")
	var apiErr *estatesdk.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}
