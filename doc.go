// Package vox reads, writes, and merges MagicaVoxel .vox scene files.
//
// A Scene is produced by ReadScene, held read-only by callers, and turned
// back into bytes by WriteScene. MergeScenes unions several scenes into
// one, fitting their palettes to a single output palette. The separate
// mesh package turns a paletted voxel grid into a triangle mesh.
package vox
