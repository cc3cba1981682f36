package tokenizer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/entity"
	"github.com/SantiagoDeStefano/ml-ops/internal/domain/service"
)

// Artifact file names inside the tokenizer directory
const (
	VocabFile  = "vocab.txt"
	ConfigFile = "tokenizer_config.json"
)

const (
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	unkToken = "[UNK]"

	continuationPrefix = "##"

	// DefaultMaxLength is used when the artifact does not declare a usable
	// model_max_length
	DefaultMaxLength = 512

	// artifacts without a real limit declare a huge sentinel value
	sentinelMaxLength = 1_000_000

	maxRunesPerWord = 100
)

// WordPiece is an uncased BERT-style WordPiece tokenizer. It is immutable
// after Load and safe for concurrent use.
type WordPiece struct {
	vocab     map[string]int
	clsID     int
	sepID     int
	unkID     int
	maxLength int
	lowerCase bool
}

type artifactConfig struct {
	ModelMaxLength *float64 `json:"model_max_length"`
	DoLowerCase    *bool    `json:"do_lower_case"`
}

// Load reads the vocabulary and tokenizer config from dir. maxLength, when
// positive, overrides the artifact's model_max_length. Every failure is a
// *service.ConfigError.
func Load(dir string, maxLength int) (*WordPiece, error) {
	vocab, err := readVocab(filepath.Join(dir, VocabFile))
	if err != nil {
		return nil, &service.ConfigError{Reason: "failed to load tokenizer vocabulary", Err: err}
	}

	cfg, err := readConfig(filepath.Join(dir, ConfigFile))
	if err != nil {
		return nil, &service.ConfigError{Reason: "failed to load tokenizer config", Err: err}
	}

	w := &WordPiece{
		vocab:     vocab,
		maxLength: DefaultMaxLength,
		lowerCase: lo.FromPtrOr(cfg.DoLowerCase, true),
	}
	if cfg.ModelMaxLength != nil && *cfg.ModelMaxLength > 0 && *cfg.ModelMaxLength < sentinelMaxLength {
		w.maxLength = int(*cfg.ModelMaxLength)
	}
	if maxLength > 0 {
		w.maxLength = maxLength
	}
	if w.maxLength < 2 {
		return nil, &service.ConfigError{Reason: fmt.Sprintf("tokenizer max length %d leaves no room for special tokens", w.maxLength)}
	}

	missing := lo.Reject([]string{clsToken, sepToken, unkToken}, func(token string, _ int) bool {
		_, ok := vocab[token]
		return ok
	})
	if len(missing) > 0 {
		return nil, &service.ConfigError{
			Reason: fmt.Sprintf("tokenizer vocabulary has no %s token", strings.Join(missing, ", ")),
		}
	}
	w.clsID, w.sepID, w.unkID = vocab[clsToken], vocab[sepToken], vocab[unkToken]

	return w, nil
}

func readVocab(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vocab := make(map[string]int)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for id := 0; scanner.Scan(); id++ {
		token := strings.TrimRight(scanner.Text(), "\r")
		// duplicates keep the last id
		vocab[token] = id
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(vocab) == 0 {
		return nil, errors.New("vocabulary is empty")
	}
	return vocab, nil
}

func readConfig(path string) (artifactConfig, error) {
	var cfg artifactConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MaxLength is the longest sequence Encode produces, special tokens included
func (w *WordPiece) MaxLength() int {
	return w.maxLength
}

// VocabSize returns the number of distinct tokens
func (w *WordPiece) VocabSize() int {
	return len(w.vocab)
}

// Encode returns [CLS] pieces... [SEP], truncating the pieces so the whole
// sequence fits in MaxLength
func (w *WordPiece) Encode(text string) entity.TokenSequence {
	budget := w.maxLength - 2
	ids := make(entity.TokenSequence, 0, 16)
	ids = append(ids, w.clsID)

words:
	for _, word := range w.basicTokenize(text) {
		for _, id := range w.wordPiece(word) {
			if len(ids)-1 >= budget {
				break words
			}
			ids = append(ids, id)
		}
	}

	return append(ids, w.sepID)
}

// basicTokenize cleans text and splits it on whitespace and punctuation
func (w *WordPiece) basicTokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar || isControl(r):
			continue
		case isWhitespace(r):
			b.WriteByte(' ')
		case isCJK(r):
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if w.lowerCase {
		cleaned = stripAccents(strings.ToLower(cleaned))
	}

	var words []string
	for _, field := range strings.Fields(cleaned) {
		words = append(words, splitPunctuation(field)...)
	}
	return words
}

// wordPiece greedily matches the longest vocabulary prefix, marking
// non-initial pieces with ##. Words that cannot be covered become [UNK].
func (w *WordPiece) wordPiece(word string) []int {
	chars := []rune(word)
	if len(chars) > maxRunesPerWord {
		return []int{w.unkID}
	}

	var ids []int
	for start := 0; start < len(chars); {
		end := len(chars)
		match := -1
		for ; start < end; end-- {
			sub := string(chars[start:end])
			if start > 0 {
				sub = continuationPrefix + sub
			}
			if id, ok := w.vocab[sub]; ok {
				match = id
				break
			}
		}
		if match < 0 {
			return []int{w.unkID}
		}
		ids = append(ids, match)
		start = end
	}
	return ids
}

func stripAccents(s string) string {
	// transformers keep state, so a chain is built per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func splitPunctuation(word string) []string {
	var out []string
	start := -1
	for i, r := range word {
		if isPunctuation(r) {
			if start >= 0 {
				out = append(out, word[start:i])
				start = -1
			}
			out = append(out, string(r))
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, word[start:])
	}
	return out
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.In(r, unicode.Cc, unicode.Cf)
}

// isPunctuation treats every non-alphanumeric ASCII symbol as punctuation,
// in addition to the Unicode P categories
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
