// Package base holds the low level building blocks the console's templ
// components are written with.
package base

import (
	twmerge "github.com/Oudwins/tailwind-merge-go"
)

// Classes merges tailwind class lists, later classes win on conflicts.
func Classes(classes ...string) string {
	return twmerge.Merge(classes...)
}
