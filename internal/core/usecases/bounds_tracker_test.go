package usecases_test

import (
	"testing"
	"time"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/usecases"
)

const testQuiet = 20 * time.Millisecond

func collectEmissions() (func(domain.Bounds), chan domain.Bounds) {
	ch := make(chan domain.Bounds, 16)
	return func(b domain.Bounds) { ch <- b }, ch
}

func waitEmission(t *testing.T, ch chan domain.Bounds) domain.Bounds {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(20 * testQuiet):
		t.Fatal("expected an emission, got none")
		return domain.Bounds{}
	}
}

func expectSilence(t *testing.T, ch chan domain.Bounds) {
	t.Helper()
	select {
	case b := <-ch:
		t.Fatalf("unexpected emission: %+v", b)
	case <-time.After(5 * testQuiet):
	}
}

func TestBoundsTracker_DebounceCollapsesBurst(t *testing.T) {
	emit, ch := collectEmissions()
	tr := usecases.NewBoundsTracker(testQuiet, emit)
	defer tr.Close()

	// A quick pan: five raw signals inside the quiet window.
	for i := 0; i < 5; i++ {
		tr.Observe(domain.Bounds{South: float64(i), West: 0, North: float64(i) + 1, East: 1})
	}

	got := waitEmission(t, ch)
	if got.South != 4 {
		t.Errorf("expected final bounds of the burst (south=4), got south=%v", got.South)
	}
	expectSilence(t, ch)
}

func TestBoundsTracker_EqualSignatureSuppressed(t *testing.T) {
	emit, ch := collectEmissions()
	tr := usecases.NewBoundsTracker(testQuiet, emit)
	defer tr.Close()

	b1 := domain.Bounds{South: 43.26301, West: -2.93501, North: 43.27001, East: -2.92001}
	// Differs only past the 4th decimal: same signature.
	b2 := domain.Bounds{South: 43.263012, West: -2.935008, North: 43.270009, East: -2.920011}

	tr.Observe(b1)
	waitEmission(t, ch)

	tr.Observe(b2)
	expectSilence(t, ch)
}

func TestBoundsTracker_PanAwayAndBackEmitsNothing(t *testing.T) {
	emit, ch := collectEmissions()
	tr := usecases.NewBoundsTracker(testQuiet, emit)
	defer tr.Close()

	home := domain.Bounds{South: 1, West: 2, North: 3, East: 4}
	tr.Observe(home)
	waitEmission(t, ch)

	// Burst that ends back where it started.
	tr.Observe(domain.Bounds{South: 10, West: 2, North: 12, East: 4})
	tr.Observe(home)
	expectSilence(t, ch)
}

func TestBoundsTracker_ReadyForcesImmediateEmission(t *testing.T) {
	emit, ch := collectEmissions()
	tr := usecases.NewBoundsTracker(testQuiet, emit)
	defer tr.Close()

	b := domain.Bounds{South: 1, West: 2, North: 3, East: 4}
	tr.Ready(b)

	select {
	case got := <-ch:
		if got != b {
			t.Errorf("expected %+v, got %+v", b, got)
		}
	default:
		t.Fatal("Ready must emit synchronously")
	}

	// The same viewport observed afterward is a duplicate.
	tr.Observe(b)
	expectSilence(t, ch)
}

func TestBoundsTracker_CloseCancelsPending(t *testing.T) {
	emit, ch := collectEmissions()
	tr := usecases.NewBoundsTracker(testQuiet, emit)

	tr.Observe(domain.Bounds{South: 1, West: 2, North: 3, East: 4})
	tr.Close()

	expectSilence(t, ch)
}
