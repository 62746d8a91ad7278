package pipeline

import (
	"fmt"

	"crmagent/internal/campaign"
)

// FailedError reports the stage at which a client's run stopped.
type FailedError struct {
	Stage    campaign.Stage
	ClientID string
	Reason   string
	Err      error
}

func (e *FailedError) Error() string {
	if e.ClientID == "" {
		return fmt.Sprintf("%s failed: %s", e.Stage, e.Reason)
	}
	return fmt.Sprintf("client %s: %s failed: %s", e.ClientID, e.Stage, e.Reason)
}

func (e *FailedError) Unwrap() error { return e.Err }
