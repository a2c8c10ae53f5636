// Package parser turns raw evaluation pipeline outputs into feedback.
//
// OutputParser implements core.OutputParser: it reads one designated output
// field (default "text") and hands the text to a core.TextResultParser. The
// package ships text parsers for the common judge grammars:
//
//   - Choices: the final token is a verdict looked up in a score table
//   - Criteria: reasoning followed by a final Y/N line
//   - JSON: a JSON object whose fields are addressed with gjson paths
//   - Func: adapts a plain function
package parser
