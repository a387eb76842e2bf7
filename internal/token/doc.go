// Package token defines the token model the semantic checks read positions from.
// Invariants:
//   - Token.Pos is the 1-based line/column of the first character of Text.
//   - Token.Span, when backed by a file, covers Text exactly.
//   - Built-in routine names (WRITELN, READI, ...) are identifiers; they are
//     recognised by the semantic layer, not by the scanner.
package token
