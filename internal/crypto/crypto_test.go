package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	assert.Equal(t, make([]byte, len("sensitive")), b)
}

func TestPassphraseWipesSource(t *testing.T) {
	src := []byte("Secr3t!")
	p := NewPassphrase(src)

	assert.Equal(t, make([]byte, len("Secr3t!")), src)
	assert.True(t, p.Equal([]byte("Secr3t!")))
	assert.False(t, p.Equal([]byte("Secr3t")))
}

func TestPassphraseUse(t *testing.T) {
	p := NewPassphrase([]byte("pw"))

	var seen string
	require.NoError(t, p.Use(func(password []byte) error {
		seen = string(password)
		return nil
	}))
	assert.Equal(t, "pw", seen)
}

func TestPassphraseClone(t *testing.T) {
	p := NewPassphrase([]byte("pw"))
	c := p.Clone()
	p.Destroy()

	assert.True(t, c.Equal([]byte("pw")))
	assert.True(t, p.Equal(nil))
}

func TestEmptyPassphrase(t *testing.T) {
	p := NewPassphrase(nil)
	assert.True(t, p.Equal([]byte{}))

	var nilPass *Passphrase
	require.NoError(t, nilPass.Use(func(password []byte) error {
		assert.Empty(t, password)
		return nil
	}))
}
