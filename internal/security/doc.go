// Package security confines lockpass file access to known directories.
//
// Vault names given with -d are validated as single file names and
// resolved under the configured vault directory. Attachment names read
// from a vault are untrusted, so extraction writes only through a Root.
package security
