// Package pipeline contains the long-running stages that move pod events
// from the cluster watch to the outbound email queue, and the supervisor
// that ties their lifetimes together.
//
// # Contract
//
//   - Every stage exposes a blocking Start(ctx) that returns only when the
//     context is cancelled or the stage hits an unrecoverable error.
//   - Watcher feeds the aggregation cache from a cursor-tracked, time-bounded
//     pod watch. Filter rejections and malformed records are logged and
//     skipped; they never terminate the stage.
//   - Composer periodically drains the whole cache into one email per tenant
//     and pushes them onto the outbound queue. The cache is flushed only on
//     cycles that produced output, so an idle cycle cannot destroy events
//     that arrived while it ran.
//   - Dispatcher periodically pops queued emails and sends them strictly in
//     order, at most the configured maximum per cycle. A failed send drops
//     that one email and moves on.
//   - Supervisor polls every stage for termination. The first stage to exit,
//     for any reason, brings the whole pipeline down: the rest are cancelled,
//     the failure is logged, and Run returns. There is no partial-degradation
//     mode; process restart is the recovery path.
package pipeline
