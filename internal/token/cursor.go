package token

// Cursor exposes the scanner's current token. Semantic checks read the
// position of whatever token is current when they run.
type Cursor interface {
	Current() Token
}

// Tracker is a Cursor whose current token is set explicitly by the driver.
// The zero value reports an Invalid token at position 0:0.
type Tracker struct {
	cur Token
}

// Current implements Cursor.
func (t *Tracker) Current() Token {
	if t == nil {
		return Token{}
	}
	return t.cur
}

// Advance makes tok the current token and returns the previous one.
func (t *Tracker) Advance(tok Token) Token {
	prev := t.cur
	t.cur = tok
	return prev
}
