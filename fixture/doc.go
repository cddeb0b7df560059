// Package fixture provides finite, pageable sources for tests and examples.
//
// Table materializes rows in a uniquely named SQLite table through GORM and
// drops it on Close. Memory pages an in-memory slice. Both satisfy
// pipeline.Pager, so they can feed pipeline.Read.
package fixture
