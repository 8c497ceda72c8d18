package modelstore

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// EntryKind tells words and labels apart.
type EntryKind int

const (
	KindWord EntryKind = iota
	KindLabel
)

func (k EntryKind) String() string {
	if k == KindLabel {
		return "label"
	}
	return "word"
}

// Entry is one dictionary row. Words come first, labels after them.
type Entry struct {
	Word  string
	Count int64
	Kind  EntryKind
}

const (
	bow = "<"
	eow = ">"
)

// Dictionary maps tokens to input rows. Rows [0, nwords) are words, rows
// [nwords, nwords+bucket) are hashed character and word n-grams.
type Dictionary struct {
	entries []Entry
	index   map[string]int32
	nwords  int
	nlabels int

	label      string
	minn, maxn int
	bucket     int
	wordNgrams int
}

// NewDictionary indexes entries. Entries must list all words before labels.
func NewDictionary(entries []Entry, label string, minn, maxn, bucket, wordNgrams int) (*Dictionary, error) {
	d := &Dictionary{
		entries:    entries,
		index:      make(map[string]int32, len(entries)),
		label:      label,
		minn:       minn,
		maxn:       maxn,
		bucket:     bucket,
		wordNgrams: wordNgrams,
	}
	for i, e := range entries {
		if _, dup := d.index[e.Word]; dup {
			return nil, fmt.Errorf("dictionary: duplicate entry %q", e.Word)
		}
		switch e.Kind {
		case KindWord:
			if d.nlabels > 0 {
				return nil, fmt.Errorf("dictionary: word %q listed after labels", e.Word)
			}
			d.nwords++
		case KindLabel:
			d.nlabels++
		default:
			return nil, fmt.Errorf("dictionary: entry %q has unknown kind %d", e.Word, e.Kind)
		}
		d.index[e.Word] = int32(i)
	}
	return d, nil
}

func (d *Dictionary) NWords() int  { return d.nwords }
func (d *Dictionary) NLabels() int { return d.nlabels }

// ID returns the entry id of w, or -1.
func (d *Dictionary) ID(w string) int32 {
	if id, ok := d.index[w]; ok {
		return id
	}
	return -1
}

// Word returns the token of entry id.
func (d *Dictionary) Word(id int32) string {
	return d.entries[id].Word
}

// Label returns the token of label index i (0 based among labels).
func (d *Dictionary) Label(i int) string {
	return d.entries[d.nwords+i].Word
}

// Entries returns the backing entries. Callers must not modify them.
func (d *Dictionary) Entries() []Entry {
	return d.entries
}

func (d *Dictionary) kindOf(w string) EntryKind {
	if d.label != "" && strings.HasPrefix(w, d.label) {
		return KindLabel
	}
	return KindWord
}

// Subwords returns the input rows that make up the vector of w: the word
// row when w is in the vocabulary followed by its character n-gram rows.
func (d *Dictionary) Subwords(w string) []int32 {
	ids, _ := d.subwords(w, false)
	return ids
}

// SubwordStrings is Subwords with the text of every row.
func (d *Dictionary) SubwordStrings(w string) ([]int32, []string) {
	return d.subwords(w, true)
}

func (d *Dictionary) subwords(w string, withText bool) ([]int32, []string) {
	var (
		ids   []int32
		texts []string
	)
	if id := d.ID(w); id >= 0 && d.entries[id].Kind == KindWord {
		ids = append(ids, id)
		if withText {
			texts = append(texts, w)
		}
	}
	d.charNgrams(bow+w+eow, func(id int32, ngram string) {
		ids = append(ids, id)
		if withText {
			texts = append(texts, ngram)
		}
	})
	return ids, texts
}

// charNgrams walks the UTF-8 aware character n-grams of a bracketed word.
func (d *Dictionary) charNgrams(word string, emit func(int32, string)) {
	if d.bucket <= 0 || d.maxn <= 0 {
		return
	}
	for i := 0; i < len(word); i++ {
		if word[i]&0xC0 == 0x80 {
			continue
		}
		var ngram []byte
		j := i
		for n := 1; j < len(word) && n <= d.maxn; n++ {
			ngram = append(ngram, word[j])
			j++
			for j < len(word) && word[j]&0xC0 == 0x80 {
				ngram = append(ngram, word[j])
				j++
			}
			if n >= d.minn && !(n == 1 && (i == 0 || j == len(word))) {
				h := hash(string(ngram)) % uint32(d.bucket)
				emit(int32(d.nwords)+int32(h), string(ngram))
			}
		}
	}
}

// Line splits one line of text into word rows and label indices.
func (d *Dictionary) Line(text string) (words []int32, labels []int32) {
	var hashes []int32
	for _, tok := range strings.Fields(text) {
		id := d.ID(tok)
		kind := d.kindOf(tok)
		if id >= 0 {
			kind = d.entries[id].Kind
		}
		switch kind {
		case KindWord:
			words = append(words, d.Subwords(tok)...)
			hashes = append(hashes, int32(hash(tok)))
		case KindLabel:
			if id >= 0 {
				labels = append(labels, id-int32(d.nwords))
			}
		}
	}
	return d.addWordNgrams(words, hashes), labels
}

func (d *Dictionary) addWordNgrams(words []int32, hashes []int32) []int32 {
	if d.bucket <= 0 || d.wordNgrams <= 1 {
		return words
	}
	for i := range hashes {
		h := uint64(int64(hashes[i]))
		for j := i + 1; j < len(hashes) && j < i+d.wordNgrams; j++ {
			h = h*116049371 + uint64(int64(hashes[j]))
			words = append(words, int32(d.nwords)+int32(h%uint64(d.bucket)))
		}
	}
	return words
}

// Dump writes the entry count followed by one `word count kind` line per entry.
func (d *Dictionary) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\n", len(d.entries)); err != nil {
		return err
	}
	for _, e := range d.entries {
		if _, err := fmt.Fprintf(bw, "%s %d %s\n", e.Word, e.Count, e.Kind); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// hash is 32-bit FNV-1a over the signed bytes of s.
func hash(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(int8(s[i]))
		h *= 16777619
	}
	return h
}
