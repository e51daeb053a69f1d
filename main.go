// Command resolved is a name resolution and destination address
// sorting server: it exposes getaddrinfo/gethostbyname-shaped lookups
// over JSON (internal/server) backed by internal/lookup, which orders
// results with internal/destsort's RFC 6724 §6 destination sort
// (rules 2, 5, 6 and 8, plus input order on ties).
package main

import "github.com/gortc/resolved/internal/cli"

func main() {
	cli.Execute()
}
