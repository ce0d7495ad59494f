// Package ui is rover's presentation layer: a Frontend draws a View and
// returns keyboard input. Terminal implements it with tcell; Null is a
// scripted stand-in for tests and headless runs.
package ui
