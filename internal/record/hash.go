package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content fingerprints.
// The version suffix allows the algorithm to change without colliding.
const (
	DomainRecord = "recordstore/record/v1"
	DomainID     = "recordstore/id/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content hash of a record's canonical JSON.
// Two records with equal fields always share a fingerprint, independent of
// map iteration order or Unicode normalization form.
func Fingerprint(r Record) (string, error) {
	canonical, err := MarshalCanonical(Object(r))
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// IDFingerprint hashes an identifier. Non-comparable identifiers are an error.
func IDFingerprint(id Value) (string, error) {
	if !Comparable(id) {
		return "", fmt.Errorf("id fingerprint: %T is not a comparable identifier", id)
	}
	canonical, err := MarshalCanonical(id)
	if err != nil {
		return "", fmt.Errorf("id fingerprint: %w", err)
	}
	return hashWithDomain(DomainID, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the record is known to be valid.
func MustFingerprint(r Record) string {
	fp, err := Fingerprint(r)
	if err != nil {
		panic(err)
	}
	return fp
}
