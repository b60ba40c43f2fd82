// Package subscription models the lifecycle of a principal's subscription
// record and the contract of the remote store that holds it.
//
// # Records
//
// Every principal owns exactly one Record, keyed by OwnerID. It is created
// on registration as a 7-day trial (see NewTrialRecord and Register) and is
// afterwards changed only by billing or admin flows. Records are never
// deleted.
//
// # Expiry
//
// The stored Status and the dates are independent signals. A record can be
// past its EndDate while Status still reads "active" because the billing
// flow has not reconciled it yet. Always derive the state at read time:
//
//	if rec.IsExpiredAt(now) { ... }          // now > EndDate, status ignored
//	status := rec.EffectiveStatusAt(now)     // trial/active/expired/cancelled
//	days := rec.DaysUntilExpiryAt(now)       // rounded up, negative when past
//
// Reconcile performs the matching write for flows that own the record.
//
// # Transitions
//
// Apply runs a lifecycle action on a copy of a record:
//
//	trial     --activate-->      active
//	trial     --cancel-->        cancelled (auto-renew off)
//	trial     --expire-->        expired
//	active    --cancel-->        cancelled (auto-renew off)
//	active    --expire-->        expired
//	expired   --activate-->      active
//	expired   --restart_trial--> trial
//	cancelled --activate-->      active
//	cancelled --restart_trial--> trial
//
// Any other combination returns ErrInvalidTransition.
//
// # Stores
//
// A Store offers a point read, a write and a live Watch. Watch returns a
// Feed whose events carry full replacement snapshots in emission order; a
// nil Event.Record means the owner has no record. Adapters live under
// pkg/store. Pipe implements Feed for adapters that push events from a
// goroutine.
package subscription
