package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_IdaYVuelta(t *testing.T) {
	token, err := Generate("secreto", "u-1", "admin", "quantlab-api", 5)
	require.NoError(t, err)

	userID, role, err := Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, "admin", role)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := Generate("secreto", "u-1", "user", "quantlab-api", 5)
	require.NoError(t, err)

	_, _, err = Parse("otro", token)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	token, err := Generate("secreto", "u-1", "user", "quantlab-api", -1)
	require.NoError(t, err)

	_, _, err = Parse("secreto", token)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", "u-1", "user", "i", 5)
	assert.Error(t, err)
}

func TestParseMock(t *testing.T) {
	userID, role, err := ParseMock("mock:user:00000000-0000-4000-8000-000000000002")
	require.NoError(t, err)
	assert.Equal(t, "user", role)
	assert.Equal(t, "00000000-0000-4000-8000-000000000002", userID)

	for _, bad := range []string{"mock:", "mock:admin", "mock::u", "bearer-x"} {
		_, _, err := ParseMock(bad)
		assert.ErrorIs(t, err, ErrMockToken, bad)
	}
}
