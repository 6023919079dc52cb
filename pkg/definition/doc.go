// Package definition loads declarative form definitions from JSON or YAML
// files and builds live form instances from them. A Holder keeps the loaded
// definitions current when files change on disk.
package definition
