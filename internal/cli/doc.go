// Package cli implements the interactive clog shell: choosing or creating a
// user container, unlocking it, and browsing and editing its folders and
// files. Commands are dispatched by a small read–eval–print loop; every
// engine error is rendered with common.Describe.
package cli
