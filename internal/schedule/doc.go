// Package schedule recomputes expected dates across a project sheet from
// its dependency column.
//
// A sheet participates when its header exposes four column roles: task ID,
// duration in days, the ID of the task it depends on, and the expected
// date. Each task depends on at most one other task, so the relation forms
// a forest, but imported or hand-edited data may contain cycles.
//
// A resolution pass starts at an edited row. It first pushes the row's date
// backward onto its chain of dependencies (dependency = task − task.duration),
// then walks up to the chain's root and pushes dates forward to every
// descendant (task = dependency + task.duration). Each of the three walks
// carries its own visited set, so cyclic input terminates: the node where
// the root walk revisits itself is treated as a pseudo-root.
//
// The result is locally consistent along the touched chain, not a globally
// solved schedule. Tasks whose basis date is unknown are skipped, never
// assigned an invented date.
package schedule
