/*
Package stream provides the observable primitives the router publishes its state with.

  - Subject: a multicast value holder that replays its latest value to new subscribers
    (or, built with NewEventSubject, only forwards later values).
  - Debouncer: delays a callback until input has been quiet for a period.

Subscribers receive values on coalescing channels: a slow reader never blocks the
producer, it only skips intermediate values and always observes the latest one.
*/
package stream
