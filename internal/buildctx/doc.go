// Package buildctx carries the plumbing shared by every build stage: context
// annotations for structured logging and the error markers used to decide how
// far a failure reaches.
//
// A failure either aborts the whole run (identity collisions, configuration
// and corpus problems), only the affected seed (tiling violations, dangling
// references) or only the affected basket (gate and distribution problems).
// FailureScope performs that classification so stage code never has to switch
// on concrete error types.
package buildctx
