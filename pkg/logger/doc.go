// Package logger builds *slog.Logger values with a consistent shape.
//
// New assembles a text or JSON handler from functional options and wraps it
// with LogHandlerDecorator, which runs ContextExtractor callbacks on every
// record. ActorExtractor is the one most services want: it adds the acting
// identity stored by rbac.WithActor.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "tillkitd"),
//	    logger.WithContextExtractors(logger.ActorExtractor()),
//	)
//
//	ctx = rbac.WithActor(ctx, actor)
//	log.InfoContext(ctx, "snapshot replaced", logger.Owner(owner), logger.Tier(rec.Tier))
//
// Attribute helpers (Error, Owner, Tier, Actor, ...) keep key names uniform.
// Error returns an empty Attr for a nil error so it can be passed without a
// nil check.
package logger
