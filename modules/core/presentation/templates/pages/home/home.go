package home

import "strconv"

// Card is one resource tile of the dashboard. Count is -1 when it could not
// be read.
type Card struct {
	Name  string
	Href  string
	Count int
}

func (c Card) count() string {
	if c.Count < 0 {
		return "-"
	}
	return strconv.Itoa(c.Count)
}

type IndexPageProps struct {
	Notice string
	Cards  []Card
}
