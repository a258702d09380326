package rng

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
)

// Dragon2Tag is appended to the HMAC message for the second curve of a
// dual-dragon round, giving the two curves independent outcomes under the
// same seed pair.
const Dragon2Tag = ":dragon2"

// hexBits is the number of leading hex characters of the digest used as the
// uniform sample: 13 hex chars = 52 bits, the full precision of a float64
// mantissa.
const hexBits = 13

// CrashPointParams bound the derivation output.
type CrashPointParams struct {
	HouseEdge     float64
	MaxCrashPoint float64
}

// CrashPoint deterministically turns (serverSeed, clientSeed, nonce) into a
// crash point. variantTag is "" for the first curve and Dragon2Tag for the
// second curve of a dual round.
//
// Derivation:
//
//	msg   = clientSeed ":" nonce [variantTag]
//	h     = first 13 hex chars of HMAC-SHA256(key=serverSeed, msg)
//	r     = h / 2^52
//	raw   = (1 - houseEdge) / (1 - r)
//	point = clamp(floor(raw*100)/100, 1.00, maxCrashPoint)
func CrashPoint(serverSeed, clientSeed string, nonce int64, variantTag string, p CrashPointParams) float64 {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	mac.Write([]byte(clientSeed + ":" + strconv.FormatInt(nonce, 10) + variantTag))
	digest := hex.EncodeToString(mac.Sum(nil))

	h, _ := strconv.ParseUint(digest[:hexBits], 16, 64)
	return pointFromSample(h, p)
}

// pointFromSample maps the 52-bit uniform sample to a crash point. Split out
// so the mapping can be tested against literal samples.
func pointFromSample(h uint64, p CrashPointParams) float64 {
	r := float64(h) / float64(uint64(1)<<52)
	raw := (1 - p.HouseEdge) / (1 - r)

	point := math.Floor(raw*100) / 100
	if point < 1.00 {
		point = 1.00
	}
	if p.MaxCrashPoint > 0 && point > p.MaxCrashPoint {
		point = p.MaxCrashPoint
	}
	return point
}

// Commitment is the public hash binding a server seed before its outcome is
// decided: hex(SHA-256(serverSeed)).
func Commitment(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// RoundSeed derives the per-round server seed from the process master seed
// and the round sequence number, so the full round history can be replayed
// from master seed + sequence.
func RoundSeed(masterSeed string, sequenceNumber int64) string {
	mac := hmac.New(sha256.New, []byte(masterSeed))
	mac.Write([]byte("round:" + strconv.FormatInt(sequenceNumber, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
