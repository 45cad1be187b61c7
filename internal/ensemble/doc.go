// Package ensemble builds and verifies ensembles of independently initialized models.
//
// Ownership boundary:
// - seeded member construction (seed == member index)
//
// - the construction pipeline: prepare root -> per member (directory, build, checkpoint)
//
// - post-hoc verification of an ensemble directory
//
// Lifecycle order:
// - idle -> preparing -> generating -> done
//
// - any stage may move to failed; members already written stay on disk.
package ensemble
