package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

type Params struct {
	N      int // CPU/memory cost, power of two
	R      int
	P      int
	KeyLen int
}

var Default = Params{N: 16384, R: 8, P: 1, KeyLen: 32}

// Hash deriva una clave scrypt con salt aleatorio y devuelve "hex(dk).hex(salt)".
// El string es auto-contenido: Verify recupera el salt del propio hash.
func Hash(p Params, plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("empty password")
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk, err := scrypt.Key([]byte(plain), salt, p.N, p.R, p.P, p.KeyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(dk) + "." + hex.EncodeToString(salt), nil
}

// Verify recomputa la derivación con el salt embebido y compara en tiempo
// constante. Nunca usar == sobre material secreto.
func Verify(p Params, plain, stored string) bool {
	dkHex, saltHex, ok := strings.Cut(stored, ".")
	if !ok {
		return false
	}
	dkStored, err := hex.DecodeString(dkHex)
	if err != nil || len(dkStored) == 0 {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	dk, err := scrypt.Key([]byte(plain), salt, p.N, p.R, p.P, len(dkStored))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(dk, dkStored) == 1
}
