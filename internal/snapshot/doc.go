// Package snapshot captures and persists point-in-time validator state.
//
// A snapshot is the full account set, the deployed program set, and the
// clock position, taken together so the three are mutually consistent. On
// validators with a pausable clock the engine pauses around the reads;
// otherwise it enumerates state between two clock reads and retries until
// both reads agree, reporting the state as unstable if it never settles.
//
// Snapshots are content-addressed: the identifier is a digest of the
// captured state, so identical captures collapse to one record. Records
// are JSON files under the snapshots state directory.
package snapshot
