// Package crypto provides the cryptographic layer of lockpass.
//
// Key derivation uses Argon2id with fixed parameters:
//   - 32-byte random salt stored in the clear at the start of the vault
//   - 8 iterations, 16 MiB of memory, 8 lanes, 32-byte output
//
// Encryption uses XChaCha20-Poly1305 with:
//   - 32-byte key from the KDF
//   - 19-byte random nonce prefix (STREAM, big-endian 32-bit counter)
//   - the whole payload sealed as the first and only chunk
//
// Memory safety:
//   - Passphrase keeps the vault password inside a memguard enclave
//   - Use ClearBytes() to zero keys, salts, nonces and plaintext after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
