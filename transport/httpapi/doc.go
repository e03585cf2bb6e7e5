// Package httpapi exposes the lending protocol and the catalog queries as a JSON API over HTTP.
//
// Routes:
//
//	POST /api/books            add an item to the catalog
//	GET  /api/books            list all items ordered by title
//	GET  /api/books/search?q=  items whose title contains q
//	GET  /api/books/summary    copy totals and open loan count
//	GET  /api/books/{code}     a single item
//	POST /api/issues/issue     issue one copy of an item to a borrower
//	POST /api/issues/return    return a borrowed copy
//	GET  /api/issues/current   all open loans ordered by due date
//	GET  /healthz              database reachability
//	GET  /metrics              Prometheus exposition, when a metrics handler is configured
//
// Failures are rendered as {"error": message}. Faults of the store are never described to the
// client; they are logged and answered with 500 "internal error".
package httpapi
