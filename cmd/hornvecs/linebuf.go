package main

import "strings"

// lineBuffer is the editable line and history of the interactive editor.
type lineBuffer struct {
	line   []byte
	cursor int

	history  []string
	histPos  int
	browsing bool
	draft    string
}

func (b *lineBuffer) reset() {
	b.line = b.line[:0]
	b.cursor = 0
	b.histPos = len(b.history)
	b.browsing = false
	b.draft = ""
}

func (b *lineBuffer) String() string { return string(b.line) }

// commit returns the current line and records it in the history unless
// it is blank.
func (b *lineBuffer) commit() string {
	s := string(b.line)
	if strings.TrimSpace(s) != "" {
		b.history = append(b.history, s)
	}
	return s
}

func (b *lineBuffer) insert(c byte) {
	b.line = append(b.line, 0)
	copy(b.line[b.cursor+1:], b.line[b.cursor:])
	b.line[b.cursor] = c
	b.cursor++
}

func (b *lineBuffer) backspace() {
	if b.cursor == 0 {
		return
	}
	b.line = append(b.line[:b.cursor-1], b.line[b.cursor:]...)
	b.cursor--
}

func (b *lineBuffer) deleteChar() {
	if b.cursor < len(b.line) {
		b.line = append(b.line[:b.cursor], b.line[b.cursor+1:]...)
	}
}

func (b *lineBuffer) left() {
	if b.cursor > 0 {
		b.cursor--
	}
}

func (b *lineBuffer) right() {
	if b.cursor < len(b.line) {
		b.cursor++
	}
}

func (b *lineBuffer) home() { b.cursor = 0 }
func (b *lineBuffer) end()  { b.cursor = len(b.line) }

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

// wordStart is the index where the word before pos begins.
func (b *lineBuffer) wordStart(pos int) int {
	for pos > 0 && isBlank(b.line[pos-1]) {
		pos--
	}
	for pos > 0 && !isBlank(b.line[pos-1]) {
		pos--
	}
	return pos
}

// wordEnd is the index just past the word after pos.
func (b *lineBuffer) wordEnd(pos int) int {
	for pos < len(b.line) && isBlank(b.line[pos]) {
		pos++
	}
	for pos < len(b.line) && !isBlank(b.line[pos]) {
		pos++
	}
	return pos
}

func (b *lineBuffer) wordLeft()  { b.cursor = b.wordStart(b.cursor) }
func (b *lineBuffer) wordRight() { b.cursor = b.wordEnd(b.cursor) }

func (b *lineBuffer) deleteWordBack() {
	start := b.wordStart(b.cursor)
	b.line = append(b.line[:start], b.line[b.cursor:]...)
	b.cursor = start
}

func (b *lineBuffer) deleteWordForward() {
	end := b.wordEnd(b.cursor)
	b.line = append(b.line[:b.cursor], b.line[end:]...)
}

func (b *lineBuffer) prev() {
	if len(b.history) == 0 {
		return
	}
	if !b.browsing {
		b.draft = string(b.line)
		b.browsing = true
		b.histPos = len(b.history)
	}
	if b.histPos > 0 {
		b.histPos--
		b.set(b.history[b.histPos])
	}
}

func (b *lineBuffer) next() {
	if !b.browsing {
		return
	}
	if b.histPos < len(b.history)-1 {
		b.histPos++
		b.set(b.history[b.histPos])
		return
	}
	b.histPos = len(b.history)
	b.browsing = false
	b.set(b.draft)
}

func (b *lineBuffer) set(s string) {
	b.line = append(b.line[:0], s...)
	b.cursor = len(b.line)
}

type keyResult int

const (
	keyNone keyResult = iota
	keyRedraw
	keySubmit
	keyInterrupt
	keyEOF
)

const (
	escNone = iota
	escStart
	escCSI
)

// keyDecoder turns raw terminal bytes into edits on a lineBuffer.
type keyDecoder struct {
	state int
	seq   []byte
}

func (d *keyDecoder) feed(c byte, b *lineBuffer) keyResult {
	switch d.state {
	case escStart:
		d.state = escNone
		switch c {
		case '[':
			d.state = escCSI
			d.seq = d.seq[:0]
			return keyNone
		case 'b', 'B':
			b.wordLeft()
		case 'f', 'F':
			b.wordRight()
		case 127:
			b.deleteWordBack()
		default:
			return keyNone
		}
		return keyRedraw
	case escCSI:
		d.seq = append(d.seq, c)
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '~' {
			d.state = escNone
			return d.csi(string(d.seq), b)
		}
		return keyNone
	}

	switch c {
	case 27:
		d.state = escStart
		return keyNone
	case '\r', '\n':
		return keySubmit
	case 3: // ctrl+c
		return keyInterrupt
	case 4: // ctrl+d
		if len(b.line) == 0 {
			return keyEOF
		}
		return keyNone
	case 127, 8:
		b.backspace()
	case 1: // ctrl+a
		b.home()
	case 5: // ctrl+e
		b.end()
	case 23: // ctrl+w
		b.deleteWordBack()
	default:
		if c < 32 {
			return keyNone
		}
		b.insert(c)
	}
	return keyRedraw
}

func (d *keyDecoder) csi(seq string, b *lineBuffer) keyResult {
	switch seq {
	case "A":
		b.prev()
	case "B":
		b.next()
	case "C":
		b.right()
	case "D":
		b.left()
	case "H":
		b.home()
	case "F":
		b.end()
	case "3~":
		b.deleteChar()
	case "1;5D", "5D":
		b.wordLeft()
	case "1;5C", "5C":
		b.wordRight()
	case "3;5~":
		b.deleteWordForward()
	default:
		return keyNone
	}
	return keyRedraw
}
