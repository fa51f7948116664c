// Package httpserver exposes the broker's queue over a small JSON API.
// Blocking get is realized as a long poll: the handler waits a bounded
// window for an item and answers 204 when the window closes empty, so
// client-side blocking composes from repeated bounded requests.
//
// Example:
//
//	rt, _ := broker.Open(broker.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, "127.0.0.1:7381")
package httpserver
