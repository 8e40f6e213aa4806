// Package seed embeds the default user and article records loaded by
// `nexusctl seed` when no file is given.
package seed

import (
	"bytes"
	_ "embed"
	"io"
)

var (
	//go:embed users.csv
	users []byte

	//go:embed articles.ndjson
	articles []byte
)

// Users returns the default users as CSV
func Users() io.Reader {
	return bytes.NewReader(users)
}

// Articles returns the default articles as NDJSON
func Articles() io.Reader {
	return bytes.NewReader(articles)
}
