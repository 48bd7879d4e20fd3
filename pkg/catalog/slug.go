package catalog

import (
	"strings"

	"github.com/gosimple/slug"
)

// Slugify derives the lookup slug of a prestation name.
func Slugify(name string) string {
	return slug.Make(strings.ReplaceAll(name, "_", " "))
}
