// Package config owns the emailer's tunable settings and their hot reload.
//
// # Contract
//
// Settings is an immutable value snapshot; the Store guards the current
// snapshot behind a RWMutex. Stages read through Store.Snapshot() at the
// top of every loop iteration, so a reload takes effect at the next wake
// without restarting anything.
//
// The Poller is a pipeline stage that periodically reads the emailer's
// ConfigMap and applies its data to the Store:
//
//   - keys matching a known tunable overwrite that tunable individually;
//     a value that fails to parse is warned about and skipped
//   - unknown keys are warned about and ignored
//   - a fetch failure keeps the previous settings unchanged
//   - application is not transactional across keys
//
// ConfigMap values use the original deployment's key names. Interval
// values accept bare seconds ("300") or a Go duration string ("5m").
//
// The "debug" key drives a zap.AtomicLevel shared with every logger in
// the process, so log verbosity follows the ConfigMap at runtime.
package config
