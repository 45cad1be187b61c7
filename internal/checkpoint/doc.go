// Package checkpoint reads and writes self-describing model checkpoints.
//
// A checkpoint file is a tar archive with two entries, in order:
//
//	meta.toml   construction metadata, parameter count, state checksum
//	state.cbor  parameter tensors (little-endian float32 payloads)
//
// The metadata alone is enough to rebuild an empty model of the right shape;
// Restore does that and loads the state into it.
package checkpoint
