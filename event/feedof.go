// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package event

import (
	"sync"
)

// FeedOf implements one-to-many subscriptions where the carrier of events is
// a channel. Values sent to a Feed are delivered to all subscribed channels
// simultaneously.
//
// The zero value is ready to use.
type FeedOf[T any] struct {
	mu   sync.Mutex
	subs map[*feedOfSub[T]]struct{}
}

// Subscribe adds a channel to the feed. Future sends will be delivered on the
// channel until the subscription is canceled.
func (f *FeedOf[T]) Subscribe(ch chan<- T) Subscription {
	sub := &feedOfSub[T]{
		feed: f,
		ch:   ch,
		quit: make(chan struct{}),
		err:  make(chan error, 1),
	}
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[*feedOfSub[T]]struct{})
	}
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

// Send delivers to all subscribed channels simultaneously. It blocks until
// every subscriber has accepted the value or unsubscribed, and returns the
// number of subscribers that the value was sent to.
func (f *FeedOf[T]) Send(value T) (nsent int) {
	f.mu.Lock()
	subs := make([]*feedOfSub[T], 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- value:
			nsent++
		case <-sub.quit:
		}
	}
	return nsent
}

// Len returns the number of live subscriptions.
func (f *FeedOf[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *FeedOf[T]) remove(sub *feedOfSub[T]) {
	f.mu.Lock()
	delete(f.subs, sub)
	f.mu.Unlock()
}

type feedOfSub[T any] struct {
	feed    *FeedOf[T]
	ch      chan<- T
	quit    chan struct{}
	errOnce sync.Once
	err     chan error
}

func (sub *feedOfSub[T]) Unsubscribe() {
	sub.errOnce.Do(func() {
		sub.feed.remove(sub)
		close(sub.quit)
		close(sub.err)
	})
}

func (sub *feedOfSub[T]) Err() <-chan error {
	return sub.err
}
