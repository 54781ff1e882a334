/*
Package service implements the reference transformation service behind the
wire contract: it turns a TransformationRequest into a prompt, asks a
ports.Generator for the output, and memoizes results in an optional
ports.ResultCache.

The HTTP surface lives in pkg/adapters/http; this package has no transport
concerns.
*/
package service
