// Package broadcast provides keyed, type-safe, in-process fan-out.
//
// Subscribers register for a single key and receive every message published
// under that key in publish order. Delivery is conflating: Broadcast never
// blocks, and when a subscriber's buffer is full its oldest queued message is
// discarded to make room. A slow subscriber therefore may skip intermediate
// values but always receives the latest one, which is the contract
// snapshot-style consumers need.
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[*Record](8)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx, "owner-1")
//	defer sub.Close()
//
//	b.Broadcast(ctx, broadcast.Message[*Record]{Key: "owner-1", Data: rec})
//
//	for msg := range sub.Receive(ctx) {
//		apply(msg.Data)
//	}
//
// Subscriptions end when the subscriber is closed, its context is cancelled
// or the broadcaster is closed.
package broadcast
