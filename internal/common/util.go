package common

// WipeByteArray overwrites b with zeros. Passwords, master keys and
// decrypted file contents go through it once they are no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
