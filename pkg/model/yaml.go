package model

import (
	"fmt"
	"strings"
)

// UnmarshalYAML lets AccessMode be written in topology config as
// "PRW", "PR_PW", "PR_SW", "SR_PW", or "SR_SW" instead of a bare int.
func (a *AccessMode) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToUpper(s) {
	case "PRW":
		*a = PRW
	case "PR_PW", "PRPW":
		*a = PRPW
	case "PR_SW", "PRSW":
		*a = PRSW
	case "SR_PW", "SRPW":
		*a = SRPW
	case "SR_SW", "SRSW":
		*a = SRSW
	default:
		return fmt.Errorf("unknown access mode %q", s)
	}
	return nil
}

// UnmarshalYAML lets SchedPredef be written as "DEFAULT", "BASIC", or
// "PRIO".
func (p *SchedPredef) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToUpper(s) {
	case "DEFAULT":
		*p = SchedDefault
	case "BASIC":
		*p = SchedBasic
	case "PRIO":
		*p = SchedPrio
	default:
		return fmt.Errorf("unknown scheduler predef %q", s)
	}
	return nil
}

// UnmarshalYAML lets PoolKind be written as "FIFO" or "PRIORITY".
func (k *PoolKind) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToUpper(s) {
	case "FIFO":
		*k = PoolFIFO
	case "PRIORITY":
		*k = PoolPriority
	default:
		return fmt.Errorf("unknown pool kind %q", s)
	}
	return nil
}

// UnmarshalYAML lets SchedType be written as "ULT" or "TASK_ONLY".
func (t *SchedType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToUpper(s) {
	case "ULT":
		*t = SchedULT
	case "TASK_ONLY", "TASKONLY":
		*t = SchedTaskOnly
	default:
		return fmt.Errorf("unknown scheduler type %q", s)
	}
	return nil
}
