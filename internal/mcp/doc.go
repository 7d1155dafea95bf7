// Package mcp implements a Model Context Protocol (MCP) server for tref.
//
// The server exposes the block lifecycle - publish, derive, validate, get,
// list - as MCP tools, so MCP clients (editors, assistants, agent runtimes)
// can create and verify knowledge blocks through a standardized protocol
// without shelling out to the CLI.
//
// Tool inputs are typed structs; their JSON schemas are generated with
// jsonschema.For and attached at registration. Handlers translate between
// MCP requests and the publisher/registry surfaces and return results as
// JSON text content. Tool-level failures (invalid draft, unknown ID) come
// back as error results rather than protocol errors, so clients can show
// them to users.
package mcp
