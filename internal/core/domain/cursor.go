package domain

import "time"

// ChannelCursor tracks the synchronisation progress for a channel.
type ChannelCursor struct {
	// ChannelID links to the Channel being synced.
	ChannelID string

	// TS is the latest message timestamp observed and durably indexed.
	TS string

	// UpdatedAt is when the cursor last advanced. Zero when the backing
	// store does not record it.
	UpdatedAt time.Time
}

// CycleSummary reports the outcome of one pass over all target channels.
type CycleSummary struct {
	// Channels is the number of channels attempted.
	Channels int

	// Failed is the number of channels whose sync returned an error.
	Failed int

	// Documents is the number of documents indexed during the cycle.
	Documents int

	// TotalIndexed is the number of points in the index after the cycle.
	// It is -1 when the count could not be read.
	TotalIndexed int

	// Duration is the wall-clock time of the cycle.
	Duration time.Duration
}

// Status is a point-in-time view of sync progress.
type Status struct {
	// Cursors lists the stored cursor of every synced channel.
	Cursors []ChannelCursor

	// TotalIndexed is the number of points in the index.
	TotalIndexed int
}
