package billing

import "errors"

// ErrNoEntries means invoice generation found nothing billable in the
// requested month.
var ErrNoEntries = errors.New("no billable entries for the selected month")
