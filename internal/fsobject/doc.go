// Package fsobject holds the filesystem objects rover caches: Directory,
// the listing of one directory, and FileEntry, one row of that listing.
//
// Directories load through a resumable scan task driven by the loader.
// The first step reads the listing, later steps stat a chunk of entries
// each, and the final step sorts the entries and commits them.
package fsobject
