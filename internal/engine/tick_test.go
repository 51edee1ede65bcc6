package engine

import "testing"

func TestClockString(t *testing.T) {
	cases := []struct {
		sec  float64
		want string
	}{
		{0, "00:00"},
		{9 * 3600, "09:00"},
		{9*3600 + 1830, "09:30"},
		{86399, "23:59"},
		{-5, "00:00"},
		{25 * 3600, "01:00"},
	}
	for _, c := range cases {
		if got := ClockString(c.sec); got != c.want {
			t.Errorf("ClockString(%v) = %q, want %q", c.sec, got, c.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	good := []struct {
		in   string
		want float64
	}{
		{"9:00", 9 * 3600},
		{"09:30", 9*3600 + 1800},
		{"21", 21 * 3600},
		{" 12:05 ", 12*3600 + 300},
		{"24:00", 24 * 3600},
	}
	for _, c := range good {
		got, err := ParseClock(c.in)
		if err != nil || got != c.want {
			t.Errorf("ParseClock(%q) = %v, %v, want %v", c.in, got, err, c.want)
		}
	}

	for _, in := range []string{"", "abc", "9:99", "25:00", "9:", "-1:00"} {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("ParseClock(%q) succeeded, want error", in)
		}
	}
}

func TestEngineStopsFromCallback(t *testing.T) {
	s := mustSim(t, shortDay())
	e := NewEngine(s)
	e.Speed = 1e9 // pacing sleeps round to zero
	e.OnTick = func(sim *Simulation) {
		if sim.Ticks >= 25 {
			e.Stop()
		}
	}
	e.Run()

	if e.Running {
		t.Fatal("engine still marked running after Run returned")
	}
	if s.Ticks < 25 {
		t.Fatalf("engine stopped after %d ticks, want at least 25", s.Ticks)
	}
}

func TestEngineRunsDayToClose(t *testing.T) {
	cfg := shortDay()
	cfg.ClientsPerHour = 30 // light traffic keeps the drain short
	s := mustSim(t, cfg)

	e := NewEngine(s)
	e.Speed = 1e9
	e.Run()

	if !s.Closed() {
		t.Fatal("engine returned before the day closed")
	}
	if e.Running {
		t.Fatal("engine still marked running")
	}
}
