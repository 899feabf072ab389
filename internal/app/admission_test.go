package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/faadiallop/FileTransferServer/internal/domain"
)

func TestAdmission_Bound(t *testing.T) {
	const n = 3
	a := NewAdmission(n)

	for i := 0; i < n; i++ {
		if !a.TryAdmit() {
			t.Fatalf("TryAdmit() #%d = false, want true", i+1)
		}
	}
	if a.TryAdmit() {
		t.Fatal("TryAdmit() beyond capacity = true, want false")
	}
	if a.Active() != n {
		t.Errorf("Active() = %d, want %d (rejection must not change the count)", a.Active(), n)
	}

	a.Release()
	if !a.TryAdmit() {
		t.Error("TryAdmit() after Release = false, want true")
	}
}

func TestAdmission_ReleaseWithoutAdmitPanics(t *testing.T) {
	a := NewAdmission(1)
	defer func() {
		if recover() == nil {
			t.Error("Release() on empty ledger did not panic")
		}
	}()
	a.Release()
}

func TestAdmission_MinimumCapacity(t *testing.T) {
	a := NewAdmission(0)
	if a.Capacity() != 1 {
		t.Errorf("Capacity() = %d, want 1", a.Capacity())
	}
}

func TestAdmission_SetCapacity(t *testing.T) {
	a := NewAdmission(2)
	a.TryAdmit()
	a.TryAdmit()

	if err := a.SetCapacity(1); err != nil {
		t.Fatalf("SetCapacity(1) error = %v", err)
	}
	a.Release()
	if a.TryAdmit() {
		t.Error("TryAdmit() with active == lowered capacity = true, want false")
	}
	a.Release()
	if !a.TryAdmit() {
		t.Error("TryAdmit() below lowered capacity = false, want true")
	}

	if err := a.SetCapacity(5); err != nil {
		t.Fatalf("SetCapacity(5) error = %v", err)
	}
	if a.Capacity() != 5 {
		t.Errorf("Capacity() = %d, want 5", a.Capacity())
	}

	if err := a.SetCapacity(0); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("SetCapacity(0) error = %v, want ErrInvalidConfig", err)
	}
}

func TestAdmission_Concurrent(t *testing.T) {
	const capacity, workers = 4, 64
	a := NewAdmission(capacity)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, peak, current := 0, 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !a.TryAdmit() {
				return
			}
			mu.Lock()
			admitted++
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()

			mu.Lock()
			current--
			mu.Unlock()
			a.Release()
		}()
	}
	wg.Wait()

	if peak > capacity {
		t.Errorf("peak concurrent admissions = %d, want <= %d", peak, capacity)
	}
	if admitted == 0 {
		t.Error("no goroutine was admitted")
	}
	if a.Active() != 0 {
		t.Errorf("Active() = %d after all releases, want 0", a.Active())
	}
}
