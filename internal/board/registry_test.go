package board

import (
	"testing"
	"time"

	"ride-planner/internal/drivers"
	"ride-planner/pkg/logger"
)

func TestRegistry(t *testing.T) {
	built := 0
	reg := NewRegistry(time.Hour, func(me drivers.Driver) *Controller {
		built++
		return NewController(me, nil, nil, logger.Discard(), Options{})
	})
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	jan := drivers.Driver{ID: "d-jan", Role: drivers.RoleChauffeur}
	c1, created := reg.Get("s1", jan)
	if !created || built != 1 {
		t.Fatal("first Get should build a controller")
	}
	c2, created := reg.Get("s1", jan)
	if created || c2 != c1 {
		t.Error("second Get should reuse the controller")
	}

	piet := drivers.Driver{ID: "d-piet", Role: drivers.RoleChauffeur}
	if c3, created := reg.Get("s1", piet); !created || c3 == c1 {
		t.Error("a session now resolving to another driver must not reuse state")
	}

	reg.Get("s2", jan)
	if reg.Len() != 2 {
		t.Fatalf("len = %d", reg.Len())
	}

	clock = clock.Add(30 * time.Minute)
	reg.Get("s2", jan)
	clock = clock.Add(45 * time.Minute)
	if n := reg.Sweep(); n != 1 || reg.Len() != 1 {
		t.Errorf("sweep removed %d, %d left", n, reg.Len())
	}

	clock = clock.Add(2 * time.Hour)
	if _, created := reg.Get("s2", jan); !created {
		t.Error("expired session should get a fresh controller")
	}

	reg.Drop("s2")
	if reg.Len() != 0 {
		t.Errorf("len after drop = %d", reg.Len())
	}
}
