// Package session implements server-side session management with sliding
// expiry: an opaque session id bound to a browser cookie references a record
// in a pluggable Store.
//
// A Manager orchestrates the lifecycle. Creation and refresh write complete
// records with expiry at now + TTL; validation is fail-closed, treating store
// errors and expired records as absent. Expired records found during
// validation get a best-effort asynchronous deletion, and every successful
// validation dispatches a non-blocking activity touch, so the request path
// only ever waits on a single store read.
//
//	store := session.NewRedisStore(client)
//	manager := session.New(store, session.WithLogger(log))
//
//	id, err := manager.Create(ctx, session.Identity{UserID: user.ID, ...})
//	manager.Codec().Set(w, id, manager.TTL())
//
//	r.Group(func(r chi.Router) {
//	    r.Use(manager.RequireSession)
//	    ...
//	})
//
// The CookieCodec owns the wire format: the raw session id as the cookie
// value with Path=/, HttpOnly, SameSite=Lax and Max-Age, plus Secure in
// production deployments.
package session
