// Package taskgroup runs a set of tasks under one cancellation scope.
//
// The first task to fail cancels the scope, so running siblings observe
// ctx.Done and stop. Wait returns only after every task has finished and
// reports exactly one failure: the first. Groups nest by deriving a group
// from a task's context and returning the nested Wait error from that task,
// which then fails the enclosing group as well.
package taskgroup
