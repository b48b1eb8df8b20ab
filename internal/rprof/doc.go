// Package rprof indexes and extracts radial profiles from the text time
// series written by mantle convection runs (the `<stem>_rprof.dat` file).
//
// The file is a flat stream: a marker line announces each saved step and is
// followed by one data line per radial cell. Restarts may change the number
// of cells, so block sizes are inferred from the gaps between markers.
//
// Building a Data value parses the stream once, coalesces per-step cell
// counts into a run table and then serves any number of queries:
//
//	data, err := rprof.OpenFile(fsutil.OSFileSystem{}, "run_rprof.dat", rprof.Options{})
//	slice, err := data.Locate(rprof.Latest)
//	prof, err := data.Accessor().Extract("Tmean", slice)
//
// All tables are immutable once built and may be queried concurrently.
package rprof
