// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package sdc holds the subdivision rules shared by topology refinement
// and primvar interpolation.
//
// It knows nothing about mesh storage. Callers describe the neighborhood of
// one edge or vertex (sharpness values, incident face sizes) and get back a
// Mask: the weights that combine the neighborhood into one child vertex.
//
// Supported schemes are Catmull-Clark, Loop and Bilinear. Creases follow
// the Uniform or Chaikin sharpness decay, and every vertex is classified by
// a Rule (Smooth, Dart, Crease, Corner) that selects its mask.
package sdc
