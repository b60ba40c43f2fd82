// Package statemachine provides a typed finite-state-machine table.
//
// A Machine is built once from transitions keyed by comparable state and
// event types, with optional Guards that veto a transition and Actions that
// apply its side effects to a subject. The machine does not hold a current
// state: callers pass the subject's state to Fire and store the returned one,
// which makes a single Machine safe to share between goroutines.
//
// # Usage
//
//	type doc struct{ reviewedAt time.Time }
//
//	m := statemachine.NewBuilder[string, string, *doc]().
//		From("draft").When("submit").To("in_review").Add().
//		From("in_review").When("approve").To("published").
//		WithAction(func(_, _ string, _ string, d *doc) error {
//			d.reviewedAt = time.Now()
//			return nil
//		}).Add().
//		MustBuild()
//
//	next, err := m.Fire("in_review", "approve", d)
//
// # Error Handling
//
// Fire distinguishes "transition not defined" from "guard rejected":
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* ... */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* ... */ }
package statemachine
