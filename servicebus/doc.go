/*
Package servicebus provides the in-process domain event bus.

Services drain their aggregates after a successful save and publish the events here; the bus
routes each event by its type string to the subscribed handlers, synchronously and in
registration order. A handler error stops dispatch and propagates to the publisher. Handlers may
publish further events through services (sagas); the dispatch depth travels in the context and
is bounded.
*/
package servicebus
