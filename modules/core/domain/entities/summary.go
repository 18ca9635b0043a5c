// Package entities holds the records the console reads from the REST API.
// Every entity is a listing.Item: it has an id, a display name and the
// console URL of its detail screen.
package entities

import (
	"fmt"
	"time"
)

// NamedRef is the {id, name} summary the API embeds for related records.
type NamedRef struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Timestamps are shared by every record.
type Timestamps struct {
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

func detailURL(base string, id int) string {
	return fmt.Sprintf("/%s/%d", base, id)
}
