package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewDisputeID returns a new case identifier of the form
// DSP<yyyymmddhhmmss><8 uppercase hex chars>.
func NewDisputeID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("DSP%s%s", now.Format("20060102150405"), suffix)
}
