package trace

import (
	"strconv"
	"sync"
	"time"
)

// StartPulse writes a pulse record to sink every interval until the
// returned stop function is called. Pulses with no span ends between them
// point at a stuck chunk group.
func StartPulse(sink Sink, every time.Duration) (stop func()) {
	if sink == nil || sink.Level() == LevelOff || every <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(every)
		defer t.Stop()
		for n := 1; ; n++ {
			select {
			case now := <-t.C:
				sink.Write(&Record{
					At:    now,
					Seq:   seq.Add(1),
					Kind:  KindPulse,
					Scope: ScopeDriver,
					Name:  "pulse",
					Note:  "#" + strconv.Itoa(n),
				})
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		wg.Wait()
	}
}
