/*
Package rabbitmq relays integration events to a RabbitMQ topic exchange.
Topics become routing keys. Connect maintains an auto-reconnecting channel, and trace
context is carried in message headers through a bus.HeaderPropagator.
*/
package rabbitmq
