package rworker

import "sync"

// Job runs fn in a goroutine registered with wg, holding a slot in the rate
// channel for the whole run. The channel capacity bounds concurrency. A
// returned error is pushed to errCh unless it is full.
func Job(wg *sync.WaitGroup, fn func() error, rate chan struct{}, errCh chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		rate <- struct{}{}
		if err := fn(); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
		<-rate
	}()
}
