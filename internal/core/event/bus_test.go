package event

import "testing"

func TestEventsDeliveredAfterSwap(t *testing.T) {
	bus := NewBus()
	var got []ClickIssued
	Subscribe(bus, func(ev ClickIssued) { got = append(got, ev) })

	Emit(bus, ClickIssued{Address: 7, Click: 1})
	if n := Pending[ClickIssued](bus); n != 1 {
		t.Fatalf("pending=%d want=1", n)
	}
	bus.DispatchAll()
	if len(got) != 0 {
		t.Fatalf("delivered before swap: %v", got)
	}

	bus.SwapBuffers()
	bus.DispatchAll()
	if len(got) != 1 || got[0].Address != 7 {
		t.Fatalf("got=%v", got)
	}
	if n := Pending[ClickIssued](bus); n != 0 {
		t.Fatalf("pending after swap=%d want=0", n)
	}

	bus.SwapBuffers()
	bus.DispatchAll()
	if len(got) != 1 {
		t.Fatalf("event delivered twice: %v", got)
	}
}

func TestHandlersOnlySeeTheirType(t *testing.T) {
	bus := NewBus()
	modes, hazards := 0, 0
	Subscribe(bus, func(ModeChanged) { modes++ })
	Subscribe(bus, func(PortalHazard) { hazards++ })

	Emit(bus, ModeChanged{From: "Stopped", To: "Manual"})
	Emit(bus, ModeChanged{From: "Manual", To: "Stopped"})
	bus.SwapBuffers()
	bus.DispatchAll()
	if modes != 2 || hazards != 0 {
		t.Fatalf("modes=%d hazards=%d want=2/0", modes, hazards)
	}
}

func TestEmitOnNilBus(t *testing.T) {
	var bus *Bus
	Emit(bus, TargetUnreachable{Address: 1})
}
