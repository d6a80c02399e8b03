package domain

// Zero wipes passphrases, derived keys and plaintexts once they are no longer needed.
// A nil or empty b is a no-op.
func Zero(b []byte) {
	clear(b)
}
