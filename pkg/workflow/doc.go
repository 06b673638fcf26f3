// Package workflow drives the host application through multi-screen flows
// that give no completion signal.
//
// Each flow is a chain of continuations on a single Scheduler timeline. After
// every action the driver waits a settle delay, then re-reads the document,
// re-classifies the screen and checks that it is still waiting for exactly
// that step. A continuation whose job was superseded, or whose screen no
// longer matches, does nothing. There is no cancellation: late continuations
// simply find themselves stale.
//
// Writes into the description field only happen when the field is empty, so
// the driver and the change monitor can both attempt the fill without
// coordinating.
package workflow
