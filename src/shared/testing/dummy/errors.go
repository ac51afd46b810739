package dummy

import (
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/transient"
)

// NetworkFailure stands in for any unreachable-dependency error. It is
// transient so retry paths treat it the way they would a real outage.
var NetworkFailure = transient.Error("Dummy network failure")
