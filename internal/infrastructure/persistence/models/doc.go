// Package models contains GORM persistence models that map to database tables.
// Domain types carry no ORM tags; each model converts to and from its domain
// counterpart with ToDomain / FromDomain.
//
//   - base.go: shared id, timestamp and version columns
//   - catalog.go: products
//   - partner.go: customers and their order statistics
//   - trade.go: carts, orders, order items and status history
//   - outbox.go: transactional outbox entries
package models
