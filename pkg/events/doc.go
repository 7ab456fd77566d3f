/*
Package events provides an in-memory event broker for randpick.

Components publish an Event whenever a draw happens, the roster is saved or
the history is cleared. Subscribers receive every event on a buffered
channel; the CLI uses one subscriber to write an audit trail through the
structured logger.

# Delivery

	Publisher → Event Channel (buffer: 100)
	     ↓
	Broadcast Loop
	     ↓
	Subscriber Channels (buffer: 50 each)

Publishing never blocks on a slow subscriber: an event is dropped for a
subscriber whose buffer is full. Stop delivers the events already queued and
then closes every subscriber channel, so a subscriber can simply range over
its channel.

# Usage

	broker := events.NewBroker()
	broker.Start()

	sub := broker.Subscribe()
	go func() {
		for ev := range sub {
			log.Info(string(ev.Type))
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventPersonSelected,
		Message: "Picked Alice",
	})

	broker.Stop()

A nil *Broker accepts Publish calls and drops them.
*/
package events
