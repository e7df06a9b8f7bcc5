// Command sejmhl is the CLI for the highlight compilation core: it runs the
// score/select/pack pipeline on a segments file, inspects the stage cache,
// previews packing plans, and lists run history.
package main
