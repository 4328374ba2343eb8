// Package scratch manages the temporary files of a processing run.
//
// Each run gets a Scope: a private directory below the scratch root. Every
// file the run creates lives in it, and Scope.Release removes the whole
// directory, so a deferred Release cleans up on success, rejection and every
// failure alike. Manager.Open sweeps run directories orphaned by a crashed
// process; a gofrs/flock lock on the root keeps that sweep away from
// directories owned by other live processes.
//
// The filesystem is an afero.Fs so tests can run against memory.
package scratch
