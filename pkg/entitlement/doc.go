// Package entitlement keeps a live snapshot of the subscription record that
// governs the acting identity and answers plan and permission questions
// against it.
//
// A Synchronizer owns at most one live watch. SetActor resolves the
// governing owner (a delegated session always resolves to its principal),
// tears down the previous watch and opens the next one. When the store has
// no record a trial snapshot is materialized in memory and never written.
// Watch failures surface as ErrSyncUnavailable and leave the last snapshot
// in place; Resync or KeepAlive reopen the watch.
//
//	sync := entitlement.NewSynchronizer(store, entitlement.WithLogger(log))
//	defer sync.Close()
//
//	if err := sync.SetActor(ctx, actor); errors.Is(err, entitlement.ErrSyncUnavailable) {
//	    // keep serving the last snapshot
//	}
//
//	eng := entitlement.NewEngine(plan.Default(), sync)
//	if !eng.Authorize(actor, rbac.PermStaffManage).Allowed() {
//	    return rbac.ErrInsufficientPermissions
//	}
//
// Engine queries never block and never fail. Without an identity every
// quota and feature reads as denied.
package entitlement
