package mboot

import (
	"fmt"

	"github.com/hashicorp/errwrap"
)

// eMsg wraps err with a description of the step that failed.
func eMsg(err error, msg string) error {
	return errwrap.Wrapf(msg+": {{err}}", err)
}

// SizeRangeError reports a decoded segment size outside its sanity
// bounds, which nearly always means boundary detection slipped upstream.
type SizeRangeError struct {
	Segment  string
	Size     uint32
	Min, Max uint32
}

func (e *SizeRangeError) Error() string {
	return fmt.Sprintf("unpacking error: %s size likely wrong: %d not in [%d, %d]",
		e.Segment, e.Size, e.Min, e.Max)
}
