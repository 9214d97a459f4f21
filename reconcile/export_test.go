package reconcile

import "time"

func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}
