// Package reload implements the two config-reload triggers SPEC_FULL
// carries over from gortcd: a SIGUSR2 signal handler (unchanged in
// shape from gortcd/internal/reload) and an fsnotify watch on the
// config/policy file, so a running server picks up an edited policy
// table without a restart.
package reload

// Notifier implements config reload request notification. C receives
// a value each time a reload should happen, whether triggered by
// SIGUSR2 or by the fsnotify watcher started with Watch.
type Notifier struct {
	C chan struct{}
}

// NewNotifier initializes and returns a new notifier subscribed to
// SIGUSR2.
func NewNotifier() Notifier {
	n := Notifier{C: make(chan struct{}, 1)}
	n.subscribe()
	return n
}

// Notify requests a reload, satisfying manage.Notifier so a Notifier
// can be handed directly to manage.NewManager for the HTTP-triggered
// reload path alongside the signal/fsnotify ones.
func (n Notifier) Notify() {
	select {
	case n.C <- struct{}{}:
	default:
		// a reload is already pending; coalesce
	}
}
