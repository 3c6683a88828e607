// Package vault holds the decrypted contents of a lockpass vault.
//
// A DatabaseFile owns an insertion-ordered list of entries plus vault-level
// metadata. Entries are addressed only by their id, which is assigned once
// by AddEmptyEntry and never changes; list positions are display order and
// are not stable across mutations.
//
// Every mutation that changes an entry refreshes its last_modified stamp.
// The vault password is held in memory only and never serialized.
package vault
