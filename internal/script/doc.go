// Package script replays recorded front-end events against the symbol
// checker. A script is a TOML file listing declare, enter, leave, check and
// token steps in the order a parser would issue them; each step may assert
// the diagnostic it is expected to produce.
package script
