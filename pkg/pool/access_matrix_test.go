package pool

import (
	"testing"

	"github.com/me/esrt/pkg/model"
)

func TestAcceptBindSchedulerAcrossES(t *testing.T) {
	cases := []struct {
		access model.AccessMode
		want   bool
	}{
		{model.PRW, false},
		{model.PRPW, false},
		{model.PRSW, false},
		{model.SRPW, true},
		{model.SRSW, true},
	}
	for _, c := range cases {
		if got := AcceptBindSchedulerAcrossES(c.access); got != c.want {
			t.Errorf("AcceptBindSchedulerAcrossES(%s) = %v, want %v", c.access, got, c.want)
		}
	}
}

func TestAcceptGeneral_SecondaryBinding(t *testing.T) {
	privateAccesses := []model.AccessMode{model.PRW, model.PRPW, model.PRSW}
	sharedAccesses := []model.AccessMode{model.SRPW, model.SRSW}
	allAccesses := append(append([]model.AccessMode{}, privateAccesses...), sharedAccesses...)

	for _, src := range privateAccesses {
		for _, tgt := range privateAccesses {
			if !acceptGeneral(src, tgt) {
				t.Errorf("acceptGeneral(%s, %s) = false, want true", src, tgt)
			}
		}
		for _, tgt := range sharedAccesses {
			if acceptGeneral(src, tgt) {
				t.Errorf("acceptGeneral(%s, %s) = true, want false", src, tgt)
			}
		}
	}
	for _, src := range sharedAccesses {
		for _, tgt := range allAccesses {
			if !acceptGeneral(src, tgt) {
				t.Errorf("acceptGeneral(%s, %s) = false, want true", src, tgt)
			}
		}
	}
}

func TestAcceptPushFromAnotherESAndRecursive(t *testing.T) {
	cases := []struct {
		access             model.AccessMode
		fromAnotherES      bool
		recursive          bool
	}{
		{model.PRW, false, false},
		{model.PRPW, true, false},
		{model.PRSW, true, true},
		{model.SRPW, true, false},
		{model.SRSW, true, true},
	}
	for _, c := range cases {
		if got := AcceptPushFromAnotherES(c.access); got != c.fromAnotherES {
			t.Errorf("AcceptPushFromAnotherES(%s) = %v, want %v", c.access, got, c.fromAnotherES)
		}
		if got := AcceptPushRecursive(c.access); got != c.recursive {
			t.Errorf("AcceptPushRecursive(%s) = %v, want %v", c.access, got, c.recursive)
		}
	}
}
