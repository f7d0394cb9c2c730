package domain

import (
	"fmt"
	"time"
)

// UnmappedLabelError reports a warning label with no entry in the scale.
// RegionID and Date are filled when the label surfaced during a join, and
// left zero for bare scale lookups.
type UnmappedLabelError struct {
	Label    string
	RegionID string
	Date     time.Time
}

func (e *UnmappedLabelError) Error() string {
	if e.RegionID == "" {
		return fmt.Sprintf("no severity mapping for warning label %q", e.Label)
	}
	return fmt.Sprintf("no severity mapping for warning label %q (region %s on %s)",
		e.Label, e.RegionID, e.Date.Format("2006-01-02"))
}

// DuplicateRegionError reports a region id that appears more than once in the
// population table.
type DuplicateRegionError struct {
	RegionID string
}

func (e *DuplicateRegionError) Error() string {
	return fmt.Sprintf("duplicate region id %q in population table", e.RegionID)
}
