package otpkit

import (
	"time"

	"github.com/kvasirlabs/otpkit/internal"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock [Clock] used when none is injected.
func SystemClock() Clock { return systemClock{} }

type cryptoCodeGenerator struct{}

func (cryptoCodeGenerator) Next(digits int) (string, error) {
	return internal.NewCode(digits)
}

// CryptoCodeGenerator returns the default [CodeGenerator], backed by
// crypto/rand.
func CryptoCodeGenerator() CodeGenerator { return cryptoCodeGenerator{} }
