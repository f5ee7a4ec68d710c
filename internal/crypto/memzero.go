package crypto

import "filippo.io/edwards25519"

// WipeScalar overwrites a secret exponent with zero. nil is ignored.
func WipeScalar(s *edwards25519.Scalar) {
	if s == nil {
		return
	}
	s.Set(edwards25519.NewScalar())
}
