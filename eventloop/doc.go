// Package eventloop runs callbacks one at a time on a single goroutine.
//
// Network readers and timers post work to a Loop instead of calling user
// code directly. Because every posted task runs to completion before the
// next one starts, state owned by those tasks needs no further locking
// against each other.
//
//	loop := &eventloop.Loop{Logger: logger}
//	go loop.Run(ctx)
//
//	loop.Post(func() { fmt.Println("runs on the loop") })
//	loop.AfterFunc(50*time.Millisecond, func() { fmt.Println("later") })
//
//	loop.Stop()
//	<-loop.Done()
//
// Stop refuses new tasks; tasks that were already queued still run before
// Run returns. A panicking task is recovered and reported to the configured
// PanicFunc, or logged when PanicFunc is nil, and the loop keeps running.
package eventloop
