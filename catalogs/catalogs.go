// Package catalogs provides embedded utility catalogue data.
package catalogs

import _ "embed"

// TailwindYAML is the bundled Tailwind utility catalogue, embedded at build time.
//
//go:embed tailwind/catalog.yaml
var TailwindYAML []byte
