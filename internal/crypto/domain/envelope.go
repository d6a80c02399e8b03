package domain

import (
	"encoding/base64"
)

// Envelopes are base64 (standard encoding) of one of two layouts sharing the AEAD
// payload nonce ‖ ciphertext ‖ tag:
//
//	versioned: version(1) ‖ payload
//	legacy:    payload

// EncodeEnvelope serializes a versioned envelope.
func EncodeEnvelope(version uint, payload []byte) (string, error) {
	if err := ValidateVersion(version); err != nil {
		return "", err
	}

	raw := make([]byte, 0, VersionSize+len(payload))
	raw = append(raw, byte(version))
	raw = append(raw, payload...)
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodeLegacyEnvelope serializes an envelope in the pre-versioning layout.
func EncodeLegacyEnvelope(payload []byte) string {
	return base64.StdEncoding.EncodeToString(payload)
}

// DecodeEnvelope base64-decodes an envelope and checks it is at least as long as the
// smallest legacy envelope.
func DecodeEnvelope(envelope string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, ErrMalformedEnvelope
	}
	if len(raw) < MinLegacyEnvelopeSize {
		return nil, ErrMalformedEnvelope
	}
	return raw, nil
}

// SplitVersioned reads raw as a versioned envelope. The version is only a claim until
// the payload authenticates under that version's key.
func SplitVersioned(raw []byte) (version uint, payload []byte, ok bool) {
	if len(raw) < MinVersionedEnvelopeSize {
		return 0, nil, false
	}
	return uint(raw[0]), raw[VersionSize:], true
}
