package repository

// QueryResult is what the CLI writes for one resource.
type QueryResult struct {
	FetchedAt string `json:"fetched_at"`
	Resource  string `json:"resource"`
	Source    string `json:"source,omitempty"`
	View      string `json:"view,omitempty"`
	Count     int    `json:"count"`
	Data      any    `json:"data"`
}

// SnapshotStats summarises one snapshot crawl.
type SnapshotStats struct {
	FetchedAt string `json:"fetched_at"`
	Pages     int    `json:"pages"`
	Products  int    `json:"products"`
	Suppliers int    `json:"suppliers"`
	Skipped   int    `json:"skipped"`
}
