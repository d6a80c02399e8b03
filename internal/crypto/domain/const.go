package domain

// Wire-format sizes. Every key is a 256-bit AES key and every envelope carries an
// AES-GCM nonce and tag of the standard lengths.
const (
	// KeySize is the length in bytes of a derived key.
	KeySize = 32

	// NonceSize is the AES-GCM nonce length carried in every envelope.
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag appended to the ciphertext.
	TagSize = 16

	// VersionSize is the length of the version header of a versioned envelope.
	VersionSize = 1

	// MaxKeyVersion is the largest version the one-byte header can carry.
	MaxKeyVersion = 255

	// MinLegacyEnvelopeSize is nonce plus tag: a legacy envelope of an empty plaintext.
	MinLegacyEnvelopeSize = NonceSize + TagSize

	// MinVersionedEnvelopeSize is a versioned envelope of an empty plaintext.
	MinVersionedEnvelopeSize = VersionSize + NonceSize + TagSize
)
