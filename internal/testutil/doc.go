// Package testutil contains helper builders and doubles used across tests to
// reduce boilerplate when constructing runs, examples and pipelines. These
// helpers are not intended for production usage.
package testutil
