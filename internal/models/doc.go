// Package models owns model construction for ensemble members.
//
// Ownership boundary:
// - parameter tensor shape and naming
//
// - the closed architecture registry (VGG, ResNet)
//
// - parameter initialization from a caller-supplied generator
//
// Models carry parameter state only. Training, inference and pretrained
// weight download are outside this package.
package models
