package xsig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerforge/chain/pkg/hash"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)

	msg := hash.Sum([]byte("hello"))
	sig := priv.Sign(msg)
	assert.True(t, priv.Public().Verify(msg, sig))
}

func TestPublicKeyBytesRoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)

	pub := priv.Public()
	decoded, err := PublicKeyFromBytes(pub.Bytes())
	require.NoError(t, err)
	assert.True(t, pub.Equal(decoded))
}

func TestPrivateKeyBytesRoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)

	decoded, err := PrivateKeyFromBytes(priv.Bytes())
	require.NoError(t, err)
	assert.True(t, priv.Public().Equal(decoded.Public()))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)

	sig := priv.Sign(hash.Sum([]byte("a")))
	assert.False(t, priv.Public().Verify(hash.Sum([]byte("b")), sig))
}
